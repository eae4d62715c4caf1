package detect

import (
	"image"
	"image/color"

	"gamewatcher/internal/frame"
)

// Palette describes the dialogue box chrome colors. Fill and Background are
// optional; zero-alpha disables their checks.
type Palette struct {
	Border     color.RGBA
	Fill       color.RGBA
	Background color.RGBA
	Tolerance  uint8
}

// DefaultPalette matches the near-white chrome most dialogue boxes use.
// Fill and Background stay disabled so only the border is checked.
func DefaultPalette() *Palette {
	return &Palette{
		Border:    color.RGBA{R: 248, G: 248, B: 248, A: 255},
		Tolerance: DefaultPaletteTolerance,
	}
}

func (p *Palette) matchesBorder(f *frame.Buffer, x, y int) bool {
	return p.matches(f, x, y, p.Border)
}

func (p *Palette) matches(f *frame.Buffer, x, y int, c color.RGBA) bool {
	i := y*f.Stride + x*4
	return within(f.Pix[i], c.R, p.Tolerance) &&
		within(f.Pix[i+1], c.G, p.Tolerance) &&
		within(f.Pix[i+2], c.B, p.Tolerance)
}

func within(v, target, tol uint8) bool {
	if v > target {
		return v-target <= tol
	}
	return target-v <= tol
}

// scanSeeds walks the area on the given stride and returns border-colored
// pixels in scan order.
func (p *Palette) scanSeeds(f *frame.Buffer, area image.Rectangle, stride int) []image.Point {
	var seeds []image.Point
	for y := area.Min.Y; y < area.Max.Y; y += stride {
		for x := area.Min.X; x < area.Max.X; x += stride {
			if p.matchesBorder(f, x, y) {
				seeds = append(seeds, image.Point{X: x, Y: y})
			}
		}
	}
	return seeds
}

// traceRect recovers the full rectangle from a seed assumed to sit on the
// top border edge: the top run is traced sideways, then both side edges are
// walked down. Short gaps from text or decoration crossing the chrome are
// tolerated.
func (p *Palette) traceRect(f *frame.Buffer, seed image.Point) (image.Rectangle, bool) {
	left := p.traceRun(f, seed, -1, 0)
	right := p.traceRun(f, seed, 1, 0)
	width := right.X - left.X + 1
	if width < 2 {
		return image.Rectangle{}, false
	}

	bottomLeft := p.traceRun(f, left, 0, 1)
	bottomRight := p.traceRun(f, right, 0, 1)

	// The shorter side wins: a side run that escaped past the real corner
	// would otherwise stretch the box
	bottom := bottomLeft.Y
	if bottomRight.Y < bottom {
		bottom = bottomRight.Y
	}
	height := bottom - seed.Y + 1
	if height < 2 {
		return image.Rectangle{}, false
	}

	return image.Rect(left.X, seed.Y, left.X+width, seed.Y+height), true
}

// traceRun walks from start in (dx, dy) while pixels match the border
// color, allowing up to TraceGapTolerance consecutive misses. It returns the
// last matching point.
func (p *Palette) traceRun(f *frame.Buffer, start image.Point, dx, dy int) image.Point {
	last := start
	gap := 0
	x, y := start.X+dx, start.Y+dy

	for x >= 0 && y >= 0 && x < f.Width && y < f.Height {
		if p.matchesBorder(f, x, y) {
			last = image.Point{X: x, Y: y}
			gap = 0
		} else {
			gap++
			if gap > TraceGapTolerance {
				break
			}
		}
		x += dx
		y += dy
	}
	return last
}
