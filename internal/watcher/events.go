package watcher

import (
	"log/slog"
	"time"
)

// Event types carried on the bus.
const (
	EventProgress   = "progress"
	EventDialogue   = "dialogue"
	EventAudioState = "audio_state"
)

// Event is one watcher notification for monitoring consumers.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// ProgressPayload is the periodic telemetry tick.
type ProgressPayload struct {
	FrameCount    uint64  `json:"frame_count"`
	FPS           float64 `json:"fps"`
	RegionsFound  uint64  `json:"regions_found"`
	CaptureMisses uint64  `json:"capture_misses"`
	OCRDrops      uint64  `json:"ocr_drops"`
	QueueDepth    int     `json:"queue_depth"`
}

// RegionBounds is the detection rectangle in frame coordinates.
type RegionBounds struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DialoguePayload describes one newly accepted line.
type DialoguePayload struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Raw        string       `json:"raw"`
	Speaker    string       `json:"speaker,omitempty"`
	Region     RegionBounds `json:"region"`
	DetectedAt time.Time    `json:"detected_at"`
}

// AudioStatePayload mirrors the playback engine status for event
// consumers.
type AudioStatePayload struct {
	QueueDepth int    `json:"queue_depth"`
	Playing    bool   `json:"playing"`
	Current    string `json:"current,omitempty"`
	Autoplay   bool   `json:"autoplay"`
}

// Bus fans watcher events out to a single consumer channel. Emit never
// blocks: when the consumer lags, events are dropped.
type Bus struct {
	ch chan Event
}

// NewBus builds a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = EventBuffer
	}
	return &Bus{ch: make(chan Event, buffer)}
}

// Events returns the consumer channel.
func (b *Bus) Events() <-chan Event { return b.ch }

// Emit publishes an event, dropping it when the buffer is full.
func (b *Bus) Emit(typ string, data any) {
	select {
	case b.ch <- Event{Type: typ, Time: time.Now(), Data: data}:
	default:
		slog.Debug("event dropped, consumer lagging", "type", typ)
	}
}
