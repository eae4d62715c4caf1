package detect

import (
	"image"
	"log/slog"

	"gamewatcher/internal/frame"
)

// Area selects the sub-region of the frame to search, as fractions of the
// frame dimensions. Buffer widens the resulting rectangle by a fixed pixel
// margin on every side.
type Area struct {
	XMin, XMax float64
	YMin, YMax float64
	Buffer     int
}

// rect resolves the area against a concrete frame, clamped to its bounds.
func (a Area) rect(f *frame.Buffer) image.Rectangle {
	r := image.Rect(
		int(a.XMin*float64(f.Width))-a.Buffer,
		int(a.YMin*float64(f.Height))-a.Buffer,
		int(a.XMax*float64(f.Width))+a.Buffer,
		int(a.YMax*float64(f.Height))+a.Buffer,
	)
	return r.Intersect(f.Bounds())
}

// Config tunes a Locator. Zero values fall back to the defaults applied by
// New. Palette or Templates selects the strategy; when both are set
// Templates wins, and when neither is set New falls back to DefaultPalette.
type Config struct {
	MinWidth  int
	MinHeight int

	// Maximum size as a fraction of the frame dimension; zero disables
	// the check.
	MaxWidthFrac  float64
	MaxHeightFrac float64

	// RequireLandscape rejects candidates taller than they are wide.
	RequireLandscape bool

	SearchArea Area

	// Stride between probe points during a full search. Zero derives it
	// from the search-area size.
	Stride int

	// CacheMargin expands the cached region on every side for the fast
	// path.
	CacheMargin int

	// MaxMisses is how many consecutive fast-path failures are tolerated
	// before the cache is cleared.
	MaxMisses int

	// MatchThreshold is the minimum NCC score for template corners.
	MatchThreshold float64

	Palette   *Palette
	Templates *TemplateSet
}

func (c Config) withDefaults() Config {
	if c.MinWidth == 0 {
		c.MinWidth = 120
	}
	if c.MinHeight == 0 {
		c.MinHeight = 40
	}
	if c.SearchArea == (Area{}) {
		// Dialogue boxes sit in the lower half of the frame in every
		// game we ship packs for.
		c.SearchArea = Area{XMin: 0.05, XMax: 0.95, YMin: 0.50, YMax: 1.0, Buffer: 16}
	}
	if c.CacheMargin == 0 {
		c.CacheMargin = DefaultCacheMargin
	}
	if c.MaxMisses == 0 {
		c.MaxMisses = 3
	}
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.93
	}
	if c.Palette == nil && c.Templates == nil {
		c.Palette = DefaultPalette()
	}
	return c
}

// Locator finds the dialogue box in a frame. While a previous position is
// cached only the cheap fast path runs; repeated misses clear the cache and
// the next call searches the full configured area again.
type Locator struct {
	cfg   Config
	state State
}

// New builds a Locator with defaults filled in.
func New(cfg Config) *Locator {
	return &Locator{cfg: cfg.withDefaults()}
}

// State exposes the cache for status reporting.
func (l *Locator) State() *State { return &l.state }

// Locate returns the best dialogue-box candidate in the frame, or false when
// none passes validation this cycle.
func (l *Locator) Locate(f *frame.Buffer) (Region, bool) {
	if cached, ok := l.state.Cached(); ok {
		area := l.fastPathArea(f, cached)
		if r, found := l.search(f, area, FastPathStride); found {
			l.state.hit(r)
			return r, true
		}
		if l.state.miss(l.cfg.MaxMisses) {
			slog.Debug("region cache cleared after repeated misses",
				"max_misses", l.cfg.MaxMisses)
		}
		return Region{}, false
	}

	area := l.cfg.SearchArea.rect(f)
	if r, found := l.search(f, area, l.fullStride(area)); found {
		l.state.hit(r)
		return r, true
	}
	return Region{}, false
}

// fastPathArea expands the cached region by the configured margin, clamped
// to the frame.
func (l *Locator) fastPathArea(f *frame.Buffer, cached Region) image.Rectangle {
	m := l.cfg.CacheMargin
	r := image.Rect(cached.X-m, cached.Y-m, cached.X+cached.W+m, cached.Y+cached.H+m)
	return r.Intersect(f.Bounds())
}

// fullStride scales the probe stride with the search area so large frames do
// not cost proportionally more.
func (l *Locator) fullStride(area image.Rectangle) int {
	if l.cfg.Stride > 0 {
		return l.cfg.Stride
	}
	return max(MinStride, min(area.Dx(), area.Dy())/StrideDivisor)
}

// search collects validated candidates in the area and picks the largest;
// ties keep the earlier candidate in scan order.
func (l *Locator) search(f *frame.Buffer, area image.Rectangle, stride int) (Region, bool) {
	if area.Empty() || stride <= 0 {
		return Region{}, false
	}
	var cands []Region
	if l.cfg.Templates != nil {
		cands = l.templateCandidates(f, area, stride)
	} else if l.cfg.Palette != nil {
		cands = l.paletteCandidates(f, area, stride)
	}
	best := -1
	for i, c := range cands {
		if best < 0 || c.Area() > cands[best].Area() {
			best = i
		}
	}
	if best < 0 {
		return Region{}, false
	}
	return cands[best], true
}

// paletteCandidates traces rectangles from border-colored seed pixels and
// keeps the validated, non-overlapping ones.
func (l *Locator) paletteCandidates(f *frame.Buffer, area image.Rectangle, stride int) []Region {
	var accepted []Region
	for _, seed := range l.cfg.Palette.scanSeeds(f, area, stride) {
		if insideAny(seed, accepted) {
			continue
		}
		rect, ok := l.cfg.Palette.traceRect(f, seed)
		if !ok {
			continue
		}
		if !l.validateGeometry(f, rect) || !l.validateColors(f, rect) {
			continue
		}
		r := Region{
			X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy(),
			Confidence: borderCoverage(f, rect, l.cfg.Palette),
			Strategy:   "palette",
		}
		if overlapsAny(r, accepted) {
			continue
		}
		accepted = append(accepted, r)
	}
	return accepted
}

// templateCandidates matches the corner templates and keeps the validated,
// non-overlapping ones.
func (l *Locator) templateCandidates(f *frame.Buffer, area image.Rectangle, stride int) []Region {
	var accepted []Region
	for _, r := range l.cfg.Templates.matchCorners(f, area, stride, l.cfg.MatchThreshold) {
		if !l.validateGeometry(f, r.Rect()) || !l.validateColors(f, r.Rect()) {
			continue
		}
		if overlapsAny(r, accepted) {
			continue
		}
		accepted = append(accepted, r)
	}
	return accepted
}

func insideAny(p image.Point, regions []Region) bool {
	for _, r := range regions {
		if p.In(r.Rect()) {
			return true
		}
	}
	return false
}

func overlapsAny(r Region, regions []Region) bool {
	for _, prev := range regions {
		if overlapRatio(r, prev) > OverlapMax {
			return true
		}
	}
	return false
}
