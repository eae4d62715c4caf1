package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperr "gamewatcher/internal/errors"
)

func TestHTTPRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ocr" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing upload: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		file.Close()
		if header.Filename != "region.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": " Hello there. \n", "confidence": 0.93}`))
	}))
	defer srv.Close()

	eng := NewHTTP(srv.URL+"/", 2*time.Second)
	text, err := eng.Recognize(context.Background(), testRegion(320, 80))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "Hello there." {
		t.Errorf("text = %q, want %q", text, "Hello there.")
	}
}

func TestHTTPRecognizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	eng := NewHTTP(srv.URL, 2*time.Second)
	if _, err := eng.Recognize(context.Background(), testRegion(320, 80)); !apperr.IsCode(err, apperr.OCRUnavailable) {
		t.Errorf("expected OCRUnavailable for 503, got %v", err)
	}
}

func TestHTTPRecognizeBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported image", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	eng := NewHTTP(srv.URL, 2*time.Second)
	if _, err := eng.Recognize(context.Background(), testRegion(320, 80)); !apperr.IsCode(err, apperr.OCRExtractFailed) {
		t.Errorf("expected OCRExtractFailed for 422, got %v", err)
	}
}

func TestHTTPRecognizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	eng := NewHTTP(srv.URL, 500*time.Millisecond)
	if _, err := eng.Recognize(context.Background(), testRegion(320, 80)); !apperr.IsCode(err, apperr.OCRUnavailable) {
		t.Errorf("expected OCRUnavailable for dead service, got %v", err)
	}
}
