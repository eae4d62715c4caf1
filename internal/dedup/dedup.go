// Package dedup filters OCR jitter: it recognizes when freshly extracted
// text is the same dialogue line that was just accepted, despite garbled
// characters, and suppresses it.
package dedup

import (
	"time"
)

// Candidate is an accepted dialogue line.
type Candidate struct {
	ID         string
	Raw        string
	Normalized string
	DetectedAt time.Time
}

// Filter decides whether raw OCR text is a new line. It remembers only the
// previously accepted line; one instance per monitored target, owned by the
// OCR worker.
type Filter struct {
	threshold float64
	last      Candidate
	lastKey   string
	hasLast   bool
}

// NewFilter builds a Filter. A non-positive threshold falls back to the
// default.
func NewFilter(threshold float64) *Filter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Filter{threshold: threshold}
}

// Accept normalizes raw text and returns a Candidate when it is a genuinely
// new line. Empty text, the exact previous line, and fuzzy re-reads of it
// all return false.
func (f *Filter) Accept(raw string) (Candidate, bool) {
	normalized := Normalize(raw)
	if normalized == "" {
		return Candidate{}, false
	}

	id := ID(normalized)
	if f.hasLast && id == f.last.ID {
		return Candidate{}, false
	}

	key := Key(normalized)
	if f.hasLast && Similarity(f.lastKey, key) >= f.threshold {
		return Candidate{}, false
	}

	f.last = Candidate{
		ID:         id,
		Raw:        raw,
		Normalized: normalized,
		DetectedAt: time.Now(),
	}
	f.lastKey = key
	f.hasLast = true
	return f.last, true
}

// Last returns the previously accepted line, if any. A suppressed read
// never displaces it.
func (f *Filter) Last() (Candidate, bool) {
	return f.last, f.hasLast
}
