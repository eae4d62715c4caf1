package dedup

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whitespace collapse", "  Hello   World  ", "hello world"},
		{"tabs and newlines", "Tabs\tand\nnewlines", "tabs and newlines"},
		{"smart quotes", "“Quoted” ‘text’", `"quoted" 'text'`},
		{"ellipsis rune", "Wait…", "wait..."},
		{"em dash", "one—two", "one-two"},
		{"fullwidth", "Ｈｅｌｌｏ", "hello"},
		{"empty", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world!", "hello world"},
		{"wait...", "wait"},
		{"are you sure?!", "are you sure"},
		{"don't stop, now", "don't stop, now"},
		{`he said "stop!"`, `he said "stop`},
	}

	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestID(t *testing.T) {
	a := ID("hello world")
	if a != ID("hello world") {
		t.Error("same text must produce the same id")
	}
	if len(a) != 32 {
		t.Errorf("id length = %d, want 32", len(a))
	}

	distinct := []string{"hello world", "hello world!", "hello  world", "goodbye"}
	seen := map[string]string{}
	for _, s := range distinct {
		id := ID(s)
		if prev, dup := seen[id]; dup {
			t.Errorf("id collision between %q and %q", prev, s)
		}
		seen[id] = s
	}
}

func TestSimilarityBoundary(t *testing.T) {
	if got := Similarity("some text", "some text"); got != 1.0 {
		t.Errorf("identical = %v, want 1.0", got)
	}
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("both empty = %v, want 1.0", got)
	}
	if got := Similarity("some text", ""); got != 0.0 {
		t.Errorf("against empty = %v, want 0.0", got)
	}
	if got := Similarity("", "some text"); got != 0.0 {
		t.Errorf("from empty = %v, want 0.0", got)
	}
}

func similarityOf(a, b string) float64 {
	return Similarity(Key(Normalize(a)), Key(Normalize(b)))
}

func TestGarbledRereadIsDuplicate(t *testing.T) {
	prior := "I just don't know what we can do... please help our prince!"
	garbled := "I just don't know what we can do... help our prince! p I e,eSe"

	if got := similarityOf(prior, garbled); got < 0.95 {
		t.Errorf("similarity = %v, want >= 0.95", got)
	}
}

func TestUnrelatedLineIsNew(t *testing.T) {
	prior := "I shall wait patiently until then."
	next := "Welcome to my shop, traveler!"

	if got := similarityOf(prior, next); got >= 0.5 {
		t.Errorf("similarity = %v, want well below threshold", got)
	}
}

func TestFilterAccept(t *testing.T) {
	f := NewFilter(0.95)

	if _, ok := f.Accept(""); ok {
		t.Error("empty text must never be accepted")
	}
	if _, ok := f.Accept("  \t \n "); ok {
		t.Error("whitespace-only text must never be accepted")
	}

	c1, ok := f.Accept("Stay awhile and listen.")
	if !ok {
		t.Fatal("first line should be accepted")
	}
	if c1.Normalized != "stay awhile and listen." {
		t.Errorf("normalized = %q", c1.Normalized)
	}
	if c1.ID != ID(c1.Normalized) {
		t.Error("candidate id must derive from normalized text")
	}

	if _, ok := f.Accept("Stay awhile and listen."); ok {
		t.Error("exact repeat should be suppressed")
	}
	if _, ok := f.Accept("Stay awhile and listen!"); ok {
		t.Error("punctuation-only variant should be suppressed")
	}

	c2, ok := f.Accept("I shall wait patiently until then.")
	if !ok {
		t.Fatal("different line should be accepted")
	}
	if last, _ := f.Last(); last.ID != c2.ID {
		t.Error("last accepted should follow the newest accept")
	}
}

func TestFilterThresholdBoundary(t *testing.T) {
	// 19 of 20 words survive the re-read, so the word-survival score is
	// exactly 19/20 = 0.95; the character-level ratio stays well below it.
	prior := strings.Repeat("ab ", 19) + "zebra"
	reread := strings.Repeat("ab ", 19) + strings.Repeat("q", 20)

	tests := []struct {
		threshold float64
		wantNew   bool
	}{
		{0.94, false},
		{0.95, false},
		{0.96, true},
	}
	for _, tt := range tests {
		f := NewFilter(tt.threshold)
		if _, ok := f.Accept(prior); !ok {
			t.Fatal("first line should be accepted")
		}
		if _, ok := f.Accept(reread); ok != tt.wantNew {
			t.Errorf("threshold %v: accepted = %v, want %v", tt.threshold, ok, tt.wantNew)
		}
	}
}

func TestFilterSuppressesGarbledReread(t *testing.T) {
	f := NewFilter(0.95)
	if _, ok := f.Accept("I just don't know what we can do... please help our prince!"); !ok {
		t.Fatal("first line should be accepted")
	}
	if _, ok := f.Accept("I just don't know what we can do... help our prince! p I e,eSe"); ok {
		t.Error("garbled re-read should be suppressed")
	}
	// The suppressed read must not displace the remembered line.
	if last, _ := f.Last(); last.Raw != "I just don't know what we can do... please help our prince!" {
		t.Errorf("last = %q", last.Raw)
	}

	if _, ok := f.Accept("Welcome to my shop, traveler!"); !ok {
		t.Error("unrelated line should be accepted")
	}
}

func TestFragmentIsNotSuppressed(t *testing.T) {
	f := NewFilter(0.95)
	if _, ok := f.Accept("We can do it together, my friend."); !ok {
		t.Fatal("first line should be accepted")
	}
	// A partial capture is shorter than the remembered line; the ratio
	// penalizes the length gap and it goes through as a new line.
	if _, ok := f.Accept("my friend."); !ok {
		t.Error("fragment should be accepted as new")
	}
}

func TestLongerNewLineIsNotSuppressed(t *testing.T) {
	f := NewFilter(0.95)
	if _, ok := f.Accept("Hello there."); !ok {
		t.Fatal("first line should be accepted")
	}
	if _, ok := f.Accept("Hello there, once upon a time in a far away land."); !ok {
		t.Error("a genuinely longer line embedding the old one is new")
	}
}
