package playback

import (
	"context"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gordonklaus/portaudio"

	apperr "gamewatcher/internal/errors"
)

// Sink is a single active audio output.
type Sink interface {
	// Play streams s to the device until it drains or ctx is canceled.
	Play(ctx context.Context, s beep.Streamer) error
	Close() error
}

// portAudioSink writes interleaved stereo float32 frames to the default
// output device.
type portAudioSink struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	out    []float32
	buf    [][2]float64
}

// NewPortAudioSink opens the default output device at the given rate.
func NewPortAudioSink(sampleRate int) (Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperr.Wrap(err, apperr.AudioDeviceFailed, "failed to initialize audio")
	}

	out := make([]float32, FramesPerBuffer*2)
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), FramesPerBuffer, &out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, apperr.Wrap(err, apperr.AudioDeviceFailed, "failed to open output device")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return nil, apperr.Wrap(err, apperr.AudioDeviceFailed, "failed to start output stream")
	}

	return &portAudioSink{
		stream: stream,
		out:    out,
		buf:    make([][2]float64, FramesPerBuffer),
	}, nil
}

func (p *portAudioSink) Play(ctx context.Context, s beep.Streamer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, ok := s.Stream(p.buf)
		if !ok {
			if err := s.Err(); err != nil {
				return apperr.Wrap(err, apperr.AudioDecodeFailed, "sample stream failed")
			}
			return nil
		}

		for i := 0; i < n; i++ {
			p.out[2*i] = clip(p.buf[i][0])
			p.out[2*i+1] = clip(p.buf[i][1])
		}
		for i := n; i < FramesPerBuffer; i++ {
			p.out[2*i] = 0
			p.out[2*i+1] = 0
		}

		if err := p.stream.Write(); err != nil {
			return apperr.Wrap(err, apperr.AudioDeviceFailed, "failed to write to output device")
		}
	}
}

func (p *portAudioSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.stream.Stop()
	err := p.stream.Close()
	_ = portaudio.Terminate()
	return err
}

// clip clamps to the device range; stacked effects can push past unity.
func clip(v float64) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return float32(v)
}
