package voicepack

import (
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"gamewatcher/internal/detect"
	apperr "gamewatcher/internal/errors"
)

// DetectionConfig is the manifest section describing how the game draws
// its dialogue box. Colors are hex strings like "#f8f8f8"; Fill and
// Background are optional and disable their checks when empty.
type DetectionConfig struct {
	Border     string `toml:"border"`
	Fill       string `toml:"fill"`
	Background string `toml:"background"`
	Tolerance  int    `toml:"tolerance"`

	MinWidth      int     `toml:"min_width"`
	MinHeight     int     `toml:"min_height"`
	MaxWidthFrac  float64 `toml:"max_width_frac"`
	MaxHeightFrac float64 `toml:"max_height_frac"`
	Landscape     bool    `toml:"landscape"`

	// Templates names a directory of corner images (tl/tr/bl/br.png),
	// relative to the pack root. When set, template matching replaces
	// the color palette as the search strategy.
	Templates      string    `toml:"templates"`
	TemplateScales []float64 `toml:"template_scales"`
}

// applyDetection validates the section and builds the locator pieces.
func (p *Pack) applyDetection(dc *DetectionConfig) error {
	if dc.Border == "" && dc.Templates == "" {
		return apperr.New(apperr.PackInvalid, "detection section needs a border color or a templates dir")
	}
	if dc.Tolerance < 0 || dc.Tolerance > 255 {
		return apperr.Newf(apperr.PackInvalid, "detection tolerance %d out of range 0-255", dc.Tolerance)
	}
	p.detection = dc

	if dc.Border != "" {
		pal := &detect.Palette{Tolerance: detect.DefaultPaletteTolerance}
		if dc.Tolerance > 0 {
			pal.Tolerance = uint8(dc.Tolerance)
		}
		var err error
		if pal.Border, err = parseHexColor(dc.Border); err != nil {
			return apperr.Wrapf(err, apperr.PackInvalid, "bad detection border color %q", dc.Border)
		}
		if dc.Fill != "" {
			if pal.Fill, err = parseHexColor(dc.Fill); err != nil {
				return apperr.Wrapf(err, apperr.PackInvalid, "bad detection fill color %q", dc.Fill)
			}
		}
		if dc.Background != "" {
			if pal.Background, err = parseHexColor(dc.Background); err != nil {
				return apperr.Wrapf(err, apperr.PackInvalid, "bad detection background color %q", dc.Background)
			}
		}
		p.palette = pal
	}

	if dc.Templates != "" {
		dir := dc.Templates
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(p.root, dir)
		}
		ts, err := detect.LoadTemplates(dir, dc.TemplateScales)
		if err != nil {
			return apperr.Wrapf(err, apperr.PackInvalid, "failed to load corner templates from %s", dc.Templates)
		}
		p.templates = ts
	}
	return nil
}

// Detection overlays the manifest's detection section onto base. Packs
// without one leave base untouched and the locator falls back to its
// own defaults.
func (p *Pack) Detection(base detect.Config) detect.Config {
	if p.detection == nil {
		return base
	}
	dc := p.detection
	if dc.MinWidth > 0 {
		base.MinWidth = dc.MinWidth
	}
	if dc.MinHeight > 0 {
		base.MinHeight = dc.MinHeight
	}
	if dc.MaxWidthFrac > 0 {
		base.MaxWidthFrac = dc.MaxWidthFrac
	}
	if dc.MaxHeightFrac > 0 {
		base.MaxHeightFrac = dc.MaxHeightFrac
	}
	if dc.Landscape {
		base.RequireLandscape = true
	}
	base.Palette = p.palette
	base.Templates = p.templates
	return base
}

// parseHexColor reads "#rrggbb" or "#rgb" into an opaque RGBA.
func parseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, apperr.Newf(apperr.PackInvalid, "hex color must have 3 or 6 digits, got %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, apperr.Wrapf(err, apperr.PackInvalid, "invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
