// Package detect locates the dialogue box rectangle inside captured frames
package detect

import "image"

// Region is a detected dialogue box in frame coordinates.
type Region struct {
	X, Y, W, H int
	Confidence float64 // [0,1]: border coverage or mean corner correlation
	Strategy   string  // "palette" or "template"
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Area returns the region area in pixels.
func (r Region) Area() int { return r.W * r.H }

// overlapRatio returns intersection area over the smaller region's area.
func overlapRatio(a, b Region) float64 {
	inter := a.Rect().Intersect(b.Rect())
	if inter.Empty() {
		return 0
	}
	smaller := a.Area()
	if b.Area() < smaller {
		smaller = b.Area()
	}
	if smaller == 0 {
		return 0
	}
	return float64(inter.Dx()*inter.Dy()) / float64(smaller)
}
