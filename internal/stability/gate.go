// Package stability gates frames so detection only runs on settled scenes
package stability

import (
	"log/slog"

	"gamewatcher/internal/frame"
)

// State is the gate's position in the settle cycle.
type State int

const (
	// Idle: scene is changing; waiting for it to quiet down.
	Idle State = iota
	// Settling: one matching frame seen; waiting for confirmation.
	Settling
	// Busy: scene settled and already processed; holding until it changes.
	Busy
)

func (s State) String() string {
	return [...]string{"idle", "settling", "busy"}[s]
}

// Result tells the caller what to do with the observed frame.
type Result int

const (
	// Hold: nothing to do this tick.
	Hold Result = iota
	// Promote: the scene just settled; run detection and OCR on this frame.
	Promote
	// Reset: the settled scene changed; a new settle cycle has begun.
	Reset
)

// Gate is the busy/idle state machine over sparse pixel samples. It keeps a
// downsampled baseline vector rather than whole frames, and uses a loose
// similarity threshold while waiting (so cursor blinks do not stall
// promotion) but a strict one once settled (so only a real content change
// kicks it back).
//
// One Gate per monitored window; not safe for concurrent use.
type Gate struct {
	idleThreshold float64
	busyThreshold float64

	state    State
	baseline []uint8
	width    int
	height   int
}

// NewGate creates a gate with the given similarity thresholds. idle is the
// loose threshold applied before promotion, busy the strict one after.
func NewGate(idle, busy float64) *Gate {
	return &Gate{idleThreshold: idle, busyThreshold: busy}
}

// State returns the current machine state.
func (g *Gate) State() State { return g.state }

// Observe feeds one frame through the machine. Exactly one Promote is
// emitted per settled scene: a Promote requires the same content on two
// consecutive ticks after a change (three from a cold start, where the first
// tick only seeds the baseline).
func (g *Gate) Observe(f *frame.Buffer) Result {
	samples := sampleGrid(f)

	if g.baseline == nil || g.width != f.Width || g.height != f.Height {
		g.replaceBaseline(f, samples)
		g.state = Idle
		return Hold
	}

	sim := similarity(g.baseline, samples)

	switch g.state {
	case Idle:
		if sim >= g.idleThreshold {
			g.state = Settling
			g.baseline = samples
			return Hold
		}
		g.baseline = samples
		return Hold

	case Settling:
		if sim >= g.idleThreshold {
			g.state = Busy
			g.baseline = samples
			slog.Debug("frame settled", "similarity", sim)
			return Promote
		}
		g.state = Idle
		g.baseline = samples
		return Hold

	default: // Busy
		if sim >= g.busyThreshold {
			return Hold
		}
		// Content changed. The differing frame may already be the new
		// settled text, so it seeds the baseline and one matching tick
		// suffices to promote again.
		g.state = Settling
		g.baseline = samples
		slog.Debug("settled frame changed", "similarity", sim)
		return Reset
	}
}

func (g *Gate) replaceBaseline(f *frame.Buffer, samples []uint8) {
	g.baseline = samples
	g.width = f.Width
	g.height = f.Height
}

// sampleGrid collects r, g, b for every grid point, reading the pixel
// buffer in bulk. Frames narrower than the grid step still sample their
// first row/column.
func sampleGrid(f *frame.Buffer) []uint8 {
	startX := gridStart(f.Width)
	startY := gridStart(f.Height)
	out := make([]uint8, 0, ((f.Width/GridStep)+1)*((f.Height/GridStep)+1)*3)

	for y := startY; y < f.Height; y += GridStep {
		row := y * f.Stride
		for x := startX; x < f.Width; x += GridStep {
			i := row + x*4
			out = append(out, f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		}
	}
	return out
}

func gridStart(dim int) int {
	if dim > GridStep/2 {
		return GridStep / 2
	}
	return 0
}

// similarity returns the fraction of grid points whose channels all fall
// within ChannelTolerance. Vectors of different lengths never match.
func similarity(baseline, current []uint8) float64 {
	if len(baseline) != len(current) || len(baseline) == 0 {
		return 0
	}

	points := len(baseline) / 3
	matched := 0
	for p := 0; p < points; p++ {
		i := p * 3
		if absDiff(baseline[i], current[i]) <= ChannelTolerance &&
			absDiff(baseline[i+1], current[i+1]) <= ChannelTolerance &&
			absDiff(baseline[i+2], current[i+2]) <= ChannelTolerance {
			matched++
		}
	}
	return float64(matched) / float64(points)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
