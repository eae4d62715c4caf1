// Package playback queues dialogue audio and plays it through a single
// output, building a per-line DSP chain from the speaker's effect tags.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"

	apperr "gamewatcher/internal/errors"
)

// Item is one queued playback request.
type Item struct {
	ID         string
	Path       string
	Speaker    string
	Effects    []Effect
	EnqueuedAt time.Time
}

// Status is a point-in-time view of the engine for monitoring consumers.
type Status struct {
	QueueDepth int    `json:"queue_depth"`
	Playing    bool   `json:"playing"`
	Current    string `json:"current,omitempty"`
	Autoplay   bool   `json:"autoplay"`
}

// Config tunes an Engine.
type Config struct {
	SampleRate   int
	QueueSize    int
	MasterVolume float64 // base-2 exponent, 0 = unity
	Autoplay     bool
	Cooldown     time.Duration // pause after each finished item

	// Decode and Sink default to DecodeFile and a portaudio output.
	Decode Decoder
	Sink   Sink

	// OnState fires after queue or playback state changes.
	OnState func(Status)
}

// Engine plays queued dialogue audio, one item at a time. Enqueue never
// blocks on playback; decode and DSP run on the engine's own worker.
type Engine struct {
	cfg    Config
	sr     beep.SampleRate
	sink   Sink
	decode Decoder

	mu       sync.Mutex
	queue    []Item
	current  *Item
	cancel   context.CancelFunc
	lastDone Item
	hasLast  bool
	autoplay bool
	onState  func(Status)

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds an Engine. Opening the default output device is the only
// fallible step and only happens when no Sink is injected.
func New(cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Decode == nil {
		cfg.Decode = DecodeFile
	}

	sink := cfg.Sink
	if sink == nil {
		var err error
		sink, err = NewPortAudioSink(cfg.SampleRate)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		cfg:      cfg,
		sr:       beep.SampleRate(cfg.SampleRate),
		sink:     sink,
		decode:   cfg.Decode,
		autoplay: cfg.Autoplay,
		onState:  cfg.OnState,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start launches the queue worker.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.run(ctx)
}

// Stop halts the worker, cancels in-flight playback, and closes the output.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.mu.Lock()
		cancel := e.cancel
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		e.wg.Wait()
		if err := e.sink.Close(); err != nil {
			slog.Warn("failed to close audio sink", "error", err)
		}
	})
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		default:
		}

		item, ok := e.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case <-time.After(PollInterval):
			}
			continue
		}

		e.play(ctx, item)

		if e.cfg.Cooldown > 0 {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case <-time.After(e.cfg.Cooldown):
			}
		}
	}
}

func (e *Engine) dequeue() (Item, bool) {
	e.mu.Lock()
	if !e.autoplay || len(e.queue) == 0 {
		e.mu.Unlock()
		return Item{}, false
	}
	item := e.queue[0]
	e.queue = e.queue[1:]
	e.mu.Unlock()
	return item, true
}

// play decodes, chains, and streams one item. Asset failures are logged and
// dropped; they never stall the queue.
func (e *Engine) play(ctx context.Context, item Item) {
	streamer, format, err := e.decode(item.Path)
	if err != nil {
		slog.Warn("failed to decode audio asset", "path", item.Path, "error", err)
		return
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != e.sr {
		src = beep.Resample(ResampleQuality, format.SampleRate, e.sr, streamer)
	}
	chain := BuildChain(src, e.sr, item.Effects, e.cfg.MasterVolume)

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.current = &item
	e.cancel = cancel
	e.mu.Unlock()
	e.notify()

	slog.Debug("playing dialogue audio", "path", item.Path, "speaker", item.Speaker)
	if err := e.sink.Play(playCtx, chain); err != nil {
		slog.Warn("playback failed", "path", item.Path, "error", err)
	}

	e.mu.Lock()
	e.lastDone = item
	e.hasLast = true
	e.current = nil
	e.cancel = nil
	e.mu.Unlock()
	e.notify()
}

// Enqueue appends a playback request. A full queue rejects the request
// rather than blocking the caller.
func (e *Engine) Enqueue(path, speaker string, fx []Effect) (Item, error) {
	item := Item{
		ID:         uuid.NewString(),
		Path:       path,
		Speaker:    speaker,
		Effects:    fx,
		EnqueuedAt: time.Now(),
	}

	e.mu.Lock()
	if len(e.queue) >= e.cfg.QueueSize {
		e.mu.Unlock()
		return Item{}, apperr.Newf(apperr.AudioQueueFull, "playback queue is full (%d items)", e.cfg.QueueSize)
	}
	e.queue = append(e.queue, item)
	e.mu.Unlock()
	e.notify()
	return item, nil
}

// Skip stops the active item early and advances; with nothing playing it
// drops the head of the queue instead.
func (e *Engine) Skip() {
	e.mu.Lock()
	if e.cancel != nil {
		cancel := e.cancel
		e.mu.Unlock()
		cancel()
		return
	}
	if len(e.queue) > 0 {
		e.queue = e.queue[1:]
	}
	e.mu.Unlock()
	e.notify()
}

// Replay puts the current (or most recently finished) item back at the
// front of the queue and stops the active playback so it starts over.
func (e *Engine) Replay() {
	e.mu.Lock()
	var item Item
	switch {
	case e.current != nil:
		item = *e.current
	case e.hasLast:
		item = e.lastDone
	default:
		e.mu.Unlock()
		return
	}
	e.queue = append([]Item{item}, e.queue...)
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		return
	}
	e.notify()
}

// Clear drops every queued item; the active item keeps playing.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.queue = nil
	e.mu.Unlock()
	e.notify()
}

// SetAutoplay toggles automatic dequeueing.
func (e *Engine) SetAutoplay(enabled bool) {
	e.mu.Lock()
	changed := e.autoplay != enabled
	e.autoplay = enabled
	e.mu.Unlock()
	if changed {
		slog.Info("autoplay toggled", "enabled", enabled)
		e.notify()
	}
}

// SetOnState replaces the state callback. Call before Start.
func (e *Engine) SetOnState(fn func(Status)) {
	e.mu.Lock()
	e.onState = fn
	e.mu.Unlock()
}

// Status reports the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	s := Status{QueueDepth: len(e.queue), Autoplay: e.autoplay}
	if e.current != nil {
		s.Playing = true
		s.Current = e.current.Path
	}
	return s
}

// notify snapshots state under the lock but invokes the callback outside it.
func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onState
	s := e.statusLocked()
	e.mu.Unlock()
	if fn == nil {
		return
	}
	fn(s)
}
