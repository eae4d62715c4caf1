package voicepack

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperr "gamewatcher/internal/errors"
)

// Record is one detected dialogue line in a session log.
type Record struct {
	Time    time.Time `json:"time"`
	Text    string    `json:"text"`
	Speaker string    `json:"speaker,omitempty"`
	EntryID string    `json:"entry_id,omitempty"`
	Played  bool      `json:"played"`
}

// Recorder appends dialogue records to a JSONL session file, batching
// writes to keep the capture loop off the disk.
type Recorder struct {
	path       string
	maxSize    int
	flushDelay time.Duration
	mu         sync.Mutex
	pending    []Record
	timer      *time.Timer
	fileMu     sync.Mutex
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewRecorder creates a session recorder writing a fresh file under dir.
func NewRecorder(dir string, maxSize int, flushDelay time.Duration) (*Recorder, error) {
	if maxSize <= 0 {
		maxSize = DefaultRecorderMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultRecorderFlushDelay
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrapf(err, apperr.Internal, "failed to create session dir %s", dir)
	}
	return &Recorder{
		path:       filepath.Join(dir, time.Now().Format(sessionFileFormat)),
		maxSize:    maxSize,
		flushDelay: flushDelay,
		pending:    make([]Record, 0, maxSize),
	}, nil
}

// Path returns the session file location.
func (r *Recorder) Path() string { return r.path }

// Add queues a record for batched writing.
func (r *Recorder) Add(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, rec)

	if len(r.pending) >= r.maxSize {
		r.flushLocked()
		return
	}

	// Start or reset timer for delayed flush
	if r.timer == nil {
		r.timer = time.AfterFunc(r.flushDelay, r.timerFlush)
	} else {
		r.timer.Reset(r.flushDelay)
	}
}

func (r *Recorder) timerFlush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Recorder) flushLocked() {
	if len(r.pending) == 0 {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	records := r.pending
	r.pending = make([]Record, 0, r.maxSize)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		var buf bytes.Buffer
		for _, rec := range records {
			line, err := json.Marshal(rec)
			if err != nil {
				slog.Warn("failed to encode session record", "error", err)
				continue
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		if err := r.appendFile(buf.Bytes()); err != nil {
			slog.Warn("failed to write session records", "error", err, "count", len(records))
			return
		}
		slog.Debug("session records written", "count", len(records))
	}()
}

func (r *Recorder) appendFile(data []byte) error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Flush forces immediate write of pending records.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

// Stop flushes remaining records and waits for writes to finish.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		r.Flush()
		r.wg.Wait()
	})
}
