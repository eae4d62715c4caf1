// Package watcher runs the capture-to-playback pipeline: it ticks the
// screen capture source, gates frames for stability, locates the dialogue
// box, extracts its text through OCR, deduplicates the result, and hands
// resolved lines to the playback engine. One Watcher monitors one target.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"

	"gamewatcher/internal/capture"
	"gamewatcher/internal/config"
	"gamewatcher/internal/dedup"
	"gamewatcher/internal/detect"
	apperr "gamewatcher/internal/errors"
	"gamewatcher/internal/frame"
	"gamewatcher/internal/ocr"
	"gamewatcher/internal/playback"
	"gamewatcher/internal/stability"
	"gamewatcher/internal/syncx"
	"gamewatcher/internal/trace"
	"gamewatcher/internal/voicepack"
)

// Watcher owns the capture loop and its collaborators.
type Watcher struct {
	cfg *config.Config

	source   capture.Source
	gate     *stability.Gate
	locator  *detect.Locator
	engine   ocr.Engine
	audio    *playback.Engine
	pack     *voicepack.Pack
	recorder *voicepack.Recorder
	filter   *dedup.Filter
	history  *History
	bus      *Bus

	sessionID string
	muted     map[string]bool
	gateState *syncx.RWGuard[string]

	frameCount    atomic.Uint64
	regionsFound  atomic.Uint64
	captureMisses atomic.Uint64
	ocrDrops      atomic.Uint64
	linesAccepted atomic.Uint64

	// ocrBusy holds while one extraction is in flight; further promoted
	// frames are dropped rather than queued.
	ocrBusy atomic.Bool

	// lastHash is the perception hash of the last crop that passed the
	// content gate. Only the tick path touches it.
	lastHash *goimagehash.ImageHash

	progressAt     time.Time
	progressFrames uint64

	cancel   context.CancelFunc
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a Watcher from its collaborators. pack and recorder may be
// nil: without a pack every accepted line is treated as unscripted, and
// without a recorder unscripted lines are not persisted. New registers
// itself as the audio engine's state callback, so call it before the
// engine starts.
func New(cfg *config.Config, source capture.Source, engine ocr.Engine, audio *playback.Engine, pack *voicepack.Pack, recorder *voicepack.Recorder) *Watcher {
	det := detect.Config{
		MatchThreshold: cfg.MatchThreshold,
		MaxMisses:      cfg.MaxMissedFrames,
	}
	if pack != nil {
		det = pack.Detection(det)
	}

	muted := make(map[string]bool, len(cfg.MuteSpeakers))
	for _, s := range cfg.MuteSpeakers {
		muted[strings.ToLower(s)] = true
	}

	w := &Watcher{
		cfg:       cfg,
		source:    source,
		gate:      stability.NewGate(cfg.IdleSimilarity, cfg.BusySimilarity),
		locator:   detect.New(det),
		engine:    engine,
		audio:     audio,
		pack:      pack,
		recorder:  recorder,
		filter:    dedup.NewFilter(cfg.DedupSimilarity),
		history:   NewHistory(cfg.HistorySize),
		bus:       NewBus(EventBuffer),
		sessionID: uuid.NewString(),
		muted:     muted,
		gateState: syncx.NewGuard(stability.Idle.String()),
		stopCh:    make(chan struct{}),
	}
	audio.SetOnState(w.handleAudioState)
	return w
}

// Start launches the capture loop.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.progressAt = time.Now()
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop halts the loop, cancels any in-flight OCR, waits for workers, and
// releases the capture source and session recorder. The playback engine
// is owned by the caller and stopped separately.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
		w.source.Close()
		if w.recorder != nil {
			w.recorder.Stop()
		}
		slog.Info("watcher stopped",
			"session_id", w.sessionID,
			"frames", w.frameCount.Load(),
			"lines", w.linesAccepted.Load())
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	interval := time.Duration(float64(time.Second) / w.cfg.CaptureRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("watcher started",
		"session_id", w.sessionID,
		"interval", interval,
		"ocr", w.engine.Name())

	cycles := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick(ctx)
			cycles++
			if cycles%TelemetryInterval == 0 {
				w.emitProgress()
			}
		}
	}
}

// tick runs one capture cycle. Everything here is synchronous and
// bounded; only OCR leaves for a worker goroutine.
func (w *Watcher) tick(ctx context.Context) {
	f, ok := w.source.Capture(ctx)
	if !ok {
		w.captureMisses.Add(1)
		return
	}
	n := w.frameCount.Add(1)

	res := w.gate.Observe(f)
	if next := w.gate.State().String(); w.gateState.Swap(next) != next {
		slog.Debug("stability gate moved", "state", next)
	}
	if res != stability.Promote {
		return
	}

	region, found := w.locator.Locate(f)
	if !found {
		return
	}
	w.regionsFound.Add(1)

	crop := f.Crop(region.Rect())
	if w.sameContent(crop) {
		return
	}

	if !w.ocrBusy.CompareAndSwap(false, true) {
		w.ocrDrops.Add(1)
		slog.Debug("dropping stable frame, OCR busy", "frame", n)
		return
	}
	w.wg.Add(1)
	go w.recognize(ctx, crop, region)
}

// sameContent reports whether the cropped region reads as the content
// already sent to OCR, using a perception hash so sprite shimmer and
// palette cycling around unchanged text do not retrigger extraction.
func (w *Watcher) sameContent(crop *frame.Buffer) bool {
	hash, err := goimagehash.PerceptionHash(crop.ToImage())
	if err != nil {
		return false
	}
	if w.lastHash != nil {
		if dist, err := w.lastHash.Distance(hash); err == nil && dist <= MaxHashDistance {
			slog.Debug("skipping OCR for unchanged region", "distance", dist)
			return true
		}
	}
	w.lastHash = hash
	return false
}

// recognize runs OCR on the cropped region and routes any new line. It
// owns the crop buffer and the ocrBusy flag.
func (w *Watcher) recognize(ctx context.Context, crop *frame.Buffer, region detect.Region) {
	defer w.wg.Done()
	defer w.ocrBusy.Store(false)

	ctx, span := trace.StartSpan(ctx, "ocr_cycle")
	log := trace.Logger(ctx)
	defer func() {
		span.End()
		log.Debug("ocr cycle finished", "span", span)
	}()

	text, err := w.engine.Recognize(ctx, crop.ToImage())
	if err != nil {
		log.Debug("OCR failed", "error", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	cand, ok := w.filter.Accept(text)
	if !ok {
		if last, has := w.filter.Last(); has {
			log.Debug("duplicate line suppressed", "of", last.ID, "chars", len(text))
		}
		return
	}
	w.linesAccepted.Add(1)
	span.SetAttr("line_id", cand.ID)

	w.handleLine(log, cand, region)
}

// handleLine resolves an accepted candidate against the pack, queues its
// clip, and records it in the history, session recorder, and event bus.
func (w *Watcher) handleLine(log *slog.Logger, cand dedup.Candidate, region detect.Region) {
	entry := HistoryEntry{
		Timestamp: cand.DetectedAt,
		ID:        cand.ID,
		Text:      cand.Normalized,
		Raw:       cand.Raw,
	}

	var line voicepack.Line
	var err error
	if w.pack != nil {
		line, err = w.pack.Resolve(cand.Normalized)
	} else {
		err = apperr.New(apperr.NotFound, "no pack loaded")
	}

	switch {
	case err == nil:
		entry.Speaker = line.Entry.Speaker
		if w.muted[strings.ToLower(line.Entry.Speaker)] {
			log.Debug("speaker muted", "speaker", line.Entry.Speaker)
		} else if _, qerr := w.audio.Enqueue(line.Path, line.Entry.Speaker, line.Effects); qerr != nil {
			log.Warn("failed to enqueue dialogue audio", "error", qerr)
		} else {
			entry.Played = true
		}
	case apperr.IsCode(err, apperr.PackMissingVoice):
		entry.Speaker = line.Entry.Speaker
		log.Debug("catalog line has no voice clip", "entry_id", line.Entry.ID)
	case apperr.IsCode(err, apperr.NotFound):
		log.Debug("line not in catalog", "id", cand.ID)
		if w.recorder != nil {
			w.recorder.Add(voicepack.Record{Time: cand.DetectedAt, Text: cand.Normalized})
		}
	default:
		log.Warn("failed to resolve line", "error", err)
	}

	w.history.Add(entry)
	w.bus.Emit(EventDialogue, DialoguePayload{
		ID:         cand.ID,
		Text:       cand.Normalized,
		Raw:        cand.Raw,
		Speaker:    entry.Speaker,
		Region:     RegionBounds{X: region.X, Y: region.Y, W: region.W, H: region.H},
		DetectedAt: cand.DetectedAt,
	})
	log.Info("dialogue line accepted",
		"id", cand.ID,
		"speaker", entry.Speaker,
		"chars", len(cand.Normalized),
		"queued", entry.Played)
}

func (w *Watcher) handleAudioState(s playback.Status) {
	w.bus.Emit(EventAudioState, AudioStatePayload{
		QueueDepth: s.QueueDepth,
		Playing:    s.Playing,
		Current:    s.Current,
		Autoplay:   s.Autoplay,
	})
}

// emitProgress publishes the telemetry tick with fps measured over the
// window since the previous one.
func (w *Watcher) emitProgress() {
	now := time.Now()
	frames := w.frameCount.Load()
	fps := 0.0
	if elapsed := now.Sub(w.progressAt); elapsed > 0 {
		fps = float64(frames-w.progressFrames) / elapsed.Seconds()
	}
	w.progressAt = now
	w.progressFrames = frames

	p := ProgressPayload{
		FrameCount:    frames,
		FPS:           fps,
		RegionsFound:  w.regionsFound.Load(),
		CaptureMisses: w.captureMisses.Load(),
		OCRDrops:      w.ocrDrops.Load(),
		QueueDepth:    w.audio.Status().QueueDepth,
	}
	w.bus.Emit(EventProgress, p)
	slog.Debug("watcher progress",
		"frames", p.FrameCount,
		"fps", p.FPS,
		"regions", p.RegionsFound,
		"ocr_drops", p.OCRDrops)
}

// PackInfo summarizes the loaded voice pack for the status snapshot.
type PackInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Lines   int    `json:"lines"`
}

// StatusPayload is the snapshot served by the status endpoint.
type StatusPayload struct {
	SessionID     string          `json:"session_id"`
	FrameCount    uint64          `json:"frame_count"`
	RegionsFound  uint64          `json:"regions_found"`
	CaptureMisses uint64          `json:"capture_misses"`
	OCRDrops      uint64          `json:"ocr_drops"`
	LinesAccepted uint64          `json:"lines_accepted"`
	HistoryLen    int             `json:"history_len"`
	Gate          string          `json:"gate"`
	Audio         playback.Status `json:"audio"`
	Pack          *PackInfo       `json:"pack,omitempty"`
}

// Status assembles a point-in-time snapshot for the API.
func (w *Watcher) Status() StatusPayload {
	s := StatusPayload{
		SessionID:     w.sessionID,
		FrameCount:    w.frameCount.Load(),
		RegionsFound:  w.regionsFound.Load(),
		CaptureMisses: w.captureMisses.Load(),
		OCRDrops:      w.ocrDrops.Load(),
		LinesAccepted: w.linesAccepted.Load(),
		HistoryLen:    w.history.Len(),
		Gate:          w.gateState.Get(),
		Audio:         w.audio.Status(),
	}
	if w.pack != nil {
		s.Pack = &PackInfo{Name: w.pack.Name, Version: w.pack.Version, Lines: w.pack.Len()}
	}
	return s
}

// Events returns the watcher's event stream.
func (w *Watcher) Events() <-chan Event { return w.bus.Events() }

// History returns the accepted-line store.
func (w *Watcher) History() *History { return w.history }

// SessionID identifies this watcher run.
func (w *Watcher) SessionID() string { return w.sessionID }

// Skip advances playback past the current item.
func (w *Watcher) Skip() { w.audio.Skip() }

// Replay restarts the current or most recently finished line.
func (w *Watcher) Replay() { w.audio.Replay() }

// ClearQueue drops all pending playback items.
func (w *Watcher) ClearQueue() { w.audio.Clear() }

// SetAutoplay toggles automatic playback of resolved lines.
func (w *Watcher) SetAutoplay(enabled bool) { w.audio.SetAutoplay(enabled) }
