package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareContinuesTrace(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set(HeaderTraceID, "trace123")
	req.Header.Set(HeaderSpanID, "span456")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.TraceID != "trace123" {
		t.Errorf("trace ID = %q, want trace123", got.TraceID)
	}
	if got.ParentSpanID != "span456" {
		t.Errorf("parent span = %q, want the caller's span", got.ParentSpanID)
	}
	if len(got.SpanID) != 16 {
		t.Errorf("span ID = %q, want a fresh 16-char ID", got.SpanID)
	}
}

func TestMiddlewareStartsTrace(t *testing.T) {
	var got Context
	var ok bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("middleware should always install a trace")
	}
	if len(got.TraceID) != 32 {
		t.Errorf("trace ID = %q, want a generated one", got.TraceID)
	}
}

func TestExtractFromJSON(t *testing.T) {
	tc, ok := ExtractFromJSON([]byte(`{"type":"skip","trace_id":"abc"}`))
	if !ok {
		t.Fatal("expected trace_id to be found")
	}
	if tc.TraceID != "abc" {
		t.Errorf("trace ID = %q, want abc", tc.TraceID)
	}
	if len(tc.SpanID) != 16 {
		t.Error("expected a fresh span ID")
	}

	if _, ok := ExtractFromJSON([]byte(`{"type":"skip"}`)); ok {
		t.Error("message without trace_id should report not found")
	}
	if _, ok := ExtractFromJSON([]byte(`not json`)); ok {
		t.Error("malformed message should report not found")
	}
}
