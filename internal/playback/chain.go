package playback

import (
	"math"
	"math/rand"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// echoStreamer mixes a feedback delay line into the stream. After the
// source drains it keeps emitting until the tail falls below audibility, so
// a trailing reverb is not cut off when the queue advances.
type echoStreamer struct {
	src     beep.Streamer
	buf     [][2]float64
	pos     int
	decay   float64
	wet     float64
	tail    int
	srcDone bool
}

func newEcho(src beep.Streamer, sr beep.SampleRate, e Echo) *echoStreamer {
	delaySamples := sr.N(e.Delay)
	if delaySamples < 1 {
		delaySamples = 1
	}
	decay := clamp(e.Decay, 0, MaxEchoDecay)
	return &echoStreamer{
		src:   src,
		buf:   make([][2]float64, delaySamples),
		decay: decay,
		wet:   clamp(e.Wet, 0, 1),
		tail:  tailSamples(sr, delaySamples, decay),
	}
}

// tailSamples is how long feedback at the given decay stays above the
// audibility floor, capped so a hot decay cannot stall the queue.
func tailSamples(sr beep.SampleRate, delaySamples int, decay float64) int {
	if decay <= 0 {
		return delaySamples
	}
	periods := int(math.Ceil(math.Log(echoTailFloor) / math.Log(decay)))
	if periods < 1 {
		periods = 1
	}
	tail := delaySamples * periods
	if limit := sr.N(maxEchoTail); tail > limit {
		tail = limit
	}
	return tail
}

func (e *echoStreamer) Stream(samples [][2]float64) (int, bool) {
	if e.srcDone && e.tail <= 0 {
		return 0, false
	}

	n := 0
	if !e.srcDone {
		n, _ = e.src.Stream(samples)
		if n < len(samples) {
			e.srcDone = true
		}
	}

	total := n
	if e.srcDone && e.tail > 0 {
		drain := len(samples) - n
		if drain > e.tail {
			drain = e.tail
		}
		for i := n; i < n+drain; i++ {
			samples[i] = [2]float64{}
		}
		e.tail -= drain
		total += drain
	}

	for i := 0; i < total; i++ {
		delayed := e.buf[e.pos]
		dry := samples[i]
		samples[i][0] = dry[0] + delayed[0]*e.wet
		samples[i][1] = dry[1] + delayed[1]*e.wet
		e.buf[e.pos][0] = dry[0] + delayed[0]*e.decay
		e.buf[e.pos][1] = dry[1] + delayed[1]*e.decay
		e.pos++
		if e.pos == len(e.buf) {
			e.pos = 0
		}
	}
	return total, total > 0
}

func (e *echoStreamer) Err() error { return e.src.Err() }

// BuildChain composes the DSP chain for one item: pitch and echo stages in
// tag order, with all volume folded into a single final multiplier.
// masterVolume is a base-2 exponent, 0 = unity.
func BuildChain(src beep.Streamer, sr beep.SampleRate, fx []Effect, masterVolume float64) beep.Streamer {
	s := src
	level := 1.0
	for _, e := range fx {
		switch eff := e.(type) {
		case PitchShift:
			s = beep.ResampleRatio(ResampleQuality, pitchFactor(eff), s)
		case Echo:
			s = newEcho(s, sr, eff)
		case Volume:
			level *= eff.Level
		}
	}

	if level <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	if level == 1.0 && masterVolume == 0 {
		return s
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(level) + masterVolume}
}

// pitchFactor resolves a fixed or randomized factor, clamped to the sane
// ratio window.
func pitchFactor(p PitchShift) float64 {
	f := p.Min
	if p.Max > p.Min {
		f += rand.Float64() * (p.Max - p.Min)
	}
	return clamp(f, MinPitch, MaxPitch)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
