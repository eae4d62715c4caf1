package detect

import (
	"image"
	_ "image/png" // corner templates are PNG files
	"math"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	apperr "gamewatcher/internal/errors"
	"gamewatcher/internal/frame"
)

// Corner indexes into a template scale set.
const (
	cornerTL = iota
	cornerTR
	cornerBL
	cornerBR
	cornerCount
)

var cornerFiles = [cornerCount]string{"tl.png", "tr.png", "bl.png", "br.png"}

// grayTemplate holds a mean-centered grayscale patch prepared for
// normalized cross-correlation.
type grayTemplate struct {
	W, H int
	dev  []float64 // pixel minus patch mean
	norm float64   // sqrt of summed squared deviations
}

// templateScale is the four corner patches at one scale.
type templateScale struct {
	scale   float64
	corners [cornerCount]*grayTemplate
}

// TemplateSet holds corner templates across the configured scales.
type TemplateSet struct {
	scales []templateScale
}

// LoadTemplates reads tl/tr/bl/br.png from dir and prepares them at each
// scale factor.
func LoadTemplates(dir string, scales []float64) (*TemplateSet, error) {
	if len(scales) == 0 {
		scales = []float64{1.0}
	}

	var imgs [cornerCount]image.Image
	for i, name := range cornerFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.ConfigInvalid, "failed to open corner template %s", name)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.ConfigInvalid, "failed to decode corner template %s", name)
		}
		imgs[i] = img
	}

	ts := &TemplateSet{}
	for _, s := range scales {
		var sc templateScale
		sc.scale = s
		for i, img := range imgs {
			scaled := img
			if s != 1.0 {
				w := uint(math.Round(float64(img.Bounds().Dx()) * s))
				scaled = resize.Resize(w, 0, img, resize.Bilinear)
			}
			t := newGrayTemplate(scaled)
			if t == nil {
				return nil, apperr.Newf(apperr.ConfigInvalid, "corner template %s is flat or empty at scale %v", cornerFiles[i], s)
			}
			sc.corners[i] = t
		}
		ts.scales = append(ts.scales, sc)
	}
	return ts, nil
}

func newGrayTemplate(img image.Image) *grayTemplate {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	pix := make([]float64, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			v := luminance(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			pix[y*w+x] = v
			sum += v
		}
	}

	mean := sum / float64(w*h)
	var sq float64
	for i, v := range pix {
		d := v - mean
		pix[i] = d
		sq += d * d
	}
	if sq == 0 {
		return nil
	}
	return &grayTemplate{W: w, H: h, dev: pix, norm: math.Sqrt(sq)}
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// score computes normalized cross-correlation of the template against the
// frame window at (ox, oy). Result is in [-1, 1]; windows without variance
// score 0.
func (t *grayTemplate) score(f *frame.Buffer, ox, oy int) float64 {
	if ox < 0 || oy < 0 || ox+t.W > f.Width || oy+t.H > f.Height {
		return -1
	}

	n := float64(t.W * t.H)
	var sum, sumSq, dot float64
	for y := 0; y < t.H; y++ {
		row := (oy+y)*f.Stride + ox*4
		trow := y * t.W
		for x := 0; x < t.W; x++ {
			i := row + x*4
			v := luminance(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
			sum += v
			sumSq += v * v
			dot += v * t.dev[trow+x]
		}
	}

	// Rounding can leave a uniform window with a tiny positive variance;
	// anything this far below the pixel scale is flat.
	variance := sumSq - sum*sum/n
	if variance <= 1e-9*sumSq {
		return 0
	}
	// dot already equals the mean-centered cross term: the template
	// deviations sum to zero
	return dot / (math.Sqrt(variance) * t.norm)
}

// cornerMatch is the best scoring position for one corner template.
type cornerMatch struct {
	pt    image.Point
	score float64
	w, h  int
}

// matchCorners finds each corner's best position inside the area and, when
// all four clear the threshold and line up, returns the spanned rectangle
// with the mean score.
func (ts *TemplateSet) matchCorners(f *frame.Buffer, area image.Rectangle, stride int, threshold float64) []Region {
	alignX := int(float64(f.Width) * CornerAlignFrac)
	alignY := int(float64(f.Height) * CornerAlignFrac)

	var out []Region
	for _, sc := range ts.scales {
		var best [cornerCount]cornerMatch
		for c := 0; c < cornerCount; c++ {
			best[c] = bestMatch(f, sc.corners[c], area, stride)
		}

		ok := true
		for c := 0; c < cornerCount; c++ {
			if best[c].score < threshold {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		tl, tr, bl, br := best[cornerTL], best[cornerTR], best[cornerBL], best[cornerBR]
		if absInt(tl.pt.Y-tr.pt.Y) > alignY || absInt(bl.pt.Y+bl.h-(br.pt.Y+br.h)) > alignY {
			continue
		}
		if absInt(tl.pt.X-bl.pt.X) > alignX || absInt(tr.pt.X+tr.w-(br.pt.X+br.w)) > alignX {
			continue
		}

		left := min(tl.pt.X, bl.pt.X)
		top := min(tl.pt.Y, tr.pt.Y)
		right := max(tr.pt.X+tr.w, br.pt.X+br.w)
		bottom := max(bl.pt.Y+bl.h, br.pt.Y+br.h)
		if right <= left || bottom <= top {
			continue
		}

		conf := (tl.score + tr.score + bl.score + br.score) / 4
		out = append(out, Region{
			X: left, Y: top, W: right - left, H: bottom - top,
			Confidence: conf,
			Strategy:   "template",
		})
	}
	return out
}

func bestMatch(f *frame.Buffer, t *grayTemplate, area image.Rectangle, stride int) cornerMatch {
	best := cornerMatch{score: -2, w: t.W, h: t.H}
	for y := area.Min.Y; y < area.Max.Y; y += stride {
		for x := area.Min.X; x < area.Max.X; x += stride {
			if s := t.score(f, x, y); s > best.score {
				best.score = s
				best.pt = image.Point{X: x, Y: y}
			}
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
