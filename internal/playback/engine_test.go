package playback

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"

	apperr "gamewatcher/internal/errors"
)

// fakeStream is an endless silent asset; the fake sink never consumes it.
type fakeStream struct{}

func (fakeStream) Stream(out [][2]float64) (int, bool) {
	for i := range out {
		out[i] = [2]float64{}
	}
	return len(out), true
}

func (fakeStream) Err() error { return nil }

func (fakeStream) Len() int { return 0 }

func (fakeStream) Position() int { return 0 }

func (fakeStream) Seek(int) error { return nil }

func (fakeStream) Close() error { return nil }

func fakeDecode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	if strings.HasPrefix(path, "bad") {
		return nil, beep.Format{}, apperr.New(apperr.AudioDecodeFailed, "corrupt test asset")
	}
	return fakeStream{}, beep.Format{SampleRate: DefaultSampleRate, NumChannels: 2, Precision: 2}, nil
}

// fakeSink blocks each Play until the test finishes it or the engine
// cancels it.
type fakeSink struct {
	mu      sync.Mutex
	plays   int
	release chan struct{}
}

func newFakeSink() *fakeSink { return &fakeSink{release: make(chan struct{})} }

func (f *fakeSink) Play(ctx context.Context, s beep.Streamer) error {
	f.mu.Lock()
	f.plays++
	f.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-f.release:
	}
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *fakeSink) finishOne() { f.release <- struct{}{} }

func newTestEngine(t *testing.T, sink Sink, autoplay bool) *Engine {
	t.Helper()
	e, err := New(Config{
		QueueSize: 8,
		Autoplay:  autoplay,
		Decode:    fakeDecode,
		Sink:      sink,
	})
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestQueueSkipAndClear(t *testing.T) {
	sink := newFakeSink()
	e := newTestEngine(t, sink, true)
	e.Start(context.Background())
	defer e.Stop()

	for _, p := range []string{"a.wav", "b.wav", "c.wav"} {
		item, err := e.Enqueue(p, "npc", nil)
		if err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
		if item.ID == "" {
			t.Fatal("enqueued item should carry an id")
		}
	}

	waitFor(t, "first item playing", func() bool {
		s := e.Status()
		return s.Playing && s.Current == "a.wav"
	})
	if depth := e.Status().QueueDepth; depth != 2 {
		t.Fatalf("queue depth = %d, want 2", depth)
	}

	e.Skip()
	waitFor(t, "second item playing", func() bool {
		s := e.Status()
		return s.Playing && s.Current == "b.wav"
	})
	if depth := e.Status().QueueDepth; depth != 1 {
		t.Errorf("skip should advance exactly one item, depth = %d", depth)
	}

	e.Clear()
	s := e.Status()
	if s.QueueDepth != 0 {
		t.Errorf("clear should drop all queued items, depth = %d", s.QueueDepth)
	}
	if !s.Playing || s.Current != "b.wav" {
		t.Errorf("clear must leave the current item playing, status %+v", s)
	}
}

func TestReplay(t *testing.T) {
	sink := newFakeSink()
	e := newTestEngine(t, sink, true)
	e.Start(context.Background())
	defer e.Stop()

	if _, err := e.Enqueue("a.wav", "npc", nil); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "item playing", func() bool { return e.Status().Playing })

	sink.finishOne()
	waitFor(t, "item finished", func() bool { return !e.Status().Playing })

	// Nothing is playing; replay resurrects the last finished item.
	e.Replay()
	waitFor(t, "item replaying", func() bool {
		s := e.Status()
		return s.Playing && s.Current == "a.wav"
	})
	if sink.playCount() != 2 {
		t.Errorf("plays = %d, want 2", sink.playCount())
	}

	// Replaying mid-item restarts it.
	e.Replay()
	waitFor(t, "item restarted", func() bool { return sink.playCount() == 3 })
}

func TestAutoplayToggle(t *testing.T) {
	sink := newFakeSink()
	e := newTestEngine(t, sink, false)
	e.Start(context.Background())
	defer e.Stop()

	if _, err := e.Enqueue("a.wav", "npc", nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * PollInterval)
	if sink.playCount() != 0 {
		t.Fatal("queue must not drain while autoplay is off")
	}
	if depth := e.Status().QueueDepth; depth != 1 {
		t.Fatalf("queue depth = %d, want 1", depth)
	}

	e.SetAutoplay(true)
	waitFor(t, "playback after enabling autoplay", func() bool { return e.Status().Playing })
}

func TestSkipWhileIdleDropsHead(t *testing.T) {
	sink := newFakeSink()
	e := newTestEngine(t, sink, false)
	e.Start(context.Background())
	defer e.Stop()

	e.Enqueue("a.wav", "npc", nil)
	e.Enqueue("b.wav", "npc", nil)

	e.Skip()
	if depth := e.Status().QueueDepth; depth != 1 {
		t.Fatalf("queue depth = %d, want 1", depth)
	}

	e.SetAutoplay(true)
	waitFor(t, "second item playing", func() bool { return e.Status().Current == "b.wav" })
}

func TestBadAssetNeverStallsQueue(t *testing.T) {
	sink := newFakeSink()
	e := newTestEngine(t, sink, true)
	e.Start(context.Background())
	defer e.Stop()

	e.Enqueue("bad.wav", "npc", nil)
	e.Enqueue("a.wav", "npc", nil)

	waitFor(t, "good item playing", func() bool { return e.Status().Current == "a.wav" })
	if sink.playCount() != 1 {
		t.Errorf("plays = %d, want 1 (bad asset skipped before the sink)", sink.playCount())
	}
}

func TestQueueBound(t *testing.T) {
	e, err := New(Config{
		QueueSize: 2,
		Decode:    fakeDecode,
		Sink:      newFakeSink(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Enqueue("a.wav", "npc", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Enqueue("b.wav", "npc", nil); err != nil {
		t.Fatal(err)
	}
	_, err = e.Enqueue("c.wav", "npc", nil)
	if err == nil {
		t.Fatal("third enqueue should be rejected")
	}
	if !apperr.IsCode(err, apperr.AudioQueueFull) {
		t.Errorf("error = %v, want queue-full code", err)
	}
}

func TestStateCallback(t *testing.T) {
	var mu sync.Mutex
	var statuses []Status

	sink := newFakeSink()
	e, err := New(Config{
		QueueSize: 8,
		Autoplay:  true,
		Decode:    fakeDecode,
		Sink:      sink,
		OnState: func(s Status) {
			mu.Lock()
			statuses = append(statuses, s)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	e.Start(context.Background())
	defer e.Stop()

	e.Enqueue("a.wav", "npc", nil)
	waitFor(t, "playing state observed", func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range statuses {
			if s.Playing && s.Current == "a.wav" {
				return true
			}
		}
		return false
	})
}
