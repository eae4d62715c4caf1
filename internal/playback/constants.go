package playback

import "time"

// Playback engine constants
const (
	// DefaultSampleRate is the output device rate all assets are resampled
	// to
	DefaultSampleRate = 44100

	// FramesPerBuffer is the portaudio write chunk, ~23ms at 44100Hz
	FramesPerBuffer = 1024

	// ResampleQuality for pitch shifting and rate conversion
	ResampleQuality = 4

	// DefaultQueueSize bounds the pending item FIFO
	DefaultQueueSize = 32

	// PollInterval is how long the worker sleeps when the queue is empty
	PollInterval = 50 * time.Millisecond

	// Pitch factors are clamped to a sane ratio
	MinPitch = 0.5
	MaxPitch = 2.0

	// Echo feedback must stay below unity or the delay line never decays
	MaxEchoDecay = 0.95

	// The echo tail is drained until feedback falls below this amplitude,
	// but never longer than the cap
	echoTailFloor = 0.001
	maxEchoTail   = 4 * time.Second
)

// Hall preset: a short and a long echo stage chained.
var hallEchoes = []Echo{
	{Delay: 90 * time.Millisecond, Decay: 0.35, Wet: 0.4},
	{Delay: 240 * time.Millisecond, Decay: 0.3, Wet: 0.3},
}
