package watcher

import (
	"sync"
	"time"
)

// HistoryEntry is one accepted dialogue line.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Raw       string    `json:"raw"`
	Speaker   string    `json:"speaker,omitempty"`
	Played    bool      `json:"played"`
}

// History keeps the most recent accepted lines in memory for the API.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	maxSize int
}

// NewHistory builds a store trimmed to maxSize entries.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{maxSize: maxSize}
}

// Add appends an entry, discarding the oldest past the size limit.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	h.entries = append(h.entries, e)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Recent returns entries newer than the given number of seconds, oldest
// first.
func (h *History) Recent(seconds int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(seconds) * time.Second)
	var out []HistoryEntry
	for _, e := range h.entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of every stored entry, oldest first.
func (h *History) All() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the stored entry count.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
