package detect

import (
	"image"

	"gamewatcher/internal/frame"
)

// validateGeometry checks size bounds and the landscape constraint.
func (l *Locator) validateGeometry(f *frame.Buffer, r image.Rectangle) bool {
	w, h := r.Dx(), r.Dy()
	if w < l.cfg.MinWidth || h < l.cfg.MinHeight {
		return false
	}
	if maxW := int(float64(f.Width) * l.cfg.MaxWidthFrac); maxW > 0 && w > maxW {
		return false
	}
	if maxH := int(float64(f.Height) * l.cfg.MaxHeightFrac); maxH > 0 && h > maxH {
		return false
	}
	if l.cfg.RequireLandscape && h > w {
		return false
	}
	return true
}

// validateColors samples the perimeter and interior against the palette.
// Without a palette every rectangle passes; geometry already ran.
func (l *Locator) validateColors(f *frame.Buffer, r image.Rectangle) bool {
	p := l.cfg.Palette
	if p == nil {
		return true
	}

	if borderCoverage(f, r, p) < BorderCoverageMin {
		return false
	}

	fillFrac, bgFrac := interiorPopulation(f, r, p)
	if p.Fill.A != 0 && fillFrac < InteriorFillMin {
		return false
	}
	if p.Background.A != 0 && bgFrac > BackgroundMaxFrac {
		return false
	}
	return true
}

// borderCoverage returns the fraction of sampled perimeter points matching
// the border color.
func borderCoverage(f *frame.Buffer, r image.Rectangle, p *Palette) float64 {
	total, matched := 0, 0

	sample := func(x, y int) {
		if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
			return
		}
		total++
		if p.matchesBorder(f, x, y) {
			matched++
		}
	}

	for i := 0; i < PerimeterSamplesPerEdge; i++ {
		x := r.Min.X + i*(r.Dx()-1)/(PerimeterSamplesPerEdge-1)
		sample(x, r.Min.Y)
		sample(x, r.Max.Y-1)

		y := r.Min.Y + i*(r.Dy()-1)/(PerimeterSamplesPerEdge-1)
		sample(r.Min.X, y)
		sample(r.Max.X-1, y)
	}

	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// interiorPopulation samples a grid strictly inside the rectangle and
// reports the fractions matching the fill and background colors.
func interiorPopulation(f *frame.Buffer, r image.Rectangle, p *Palette) (fill, background float64) {
	inner := r.Inset(2)
	if inner.Empty() {
		return 0, 0
	}

	total, fillN, bgN := 0, 0, 0
	for iy := 0; iy < InteriorGridSamples; iy++ {
		y := inner.Min.Y + iy*(inner.Dy()-1)/(InteriorGridSamples-1)
		for ix := 0; ix < InteriorGridSamples; ix++ {
			x := inner.Min.X + ix*(inner.Dx()-1)/(InteriorGridSamples-1)
			total++
			if p.Fill.A != 0 && p.matches(f, x, y, p.Fill) {
				fillN++
			}
			if p.Background.A != 0 && p.matches(f, x, y, p.Background) {
				bgN++
			}
		}
	}

	return float64(fillN) / float64(total), float64(bgN) / float64(total)
}
