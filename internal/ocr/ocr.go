// Package ocr extracts dialogue text from frame regions. Two engines
// are provided: a local tesseract binary driven over stdin/stdout and
// an HTTP sidecar for setups where tesseract is not installed.
package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"time"

	"github.com/nfnt/resize"

	apperr "gamewatcher/internal/errors"
)

// Engine extracts text from a dialogue region image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Name() string
}

// New builds the configured engine. kind is "tesseract" or "http".
func New(kind, lang, addr string, timeout time.Duration) (Engine, error) {
	switch kind {
	case "tesseract":
		return NewTesseract(lang, timeout)
	case "http":
		return NewHTTP(addr, timeout), nil
	default:
		return nil, apperr.Newf(apperr.ConfigInvalid, "unknown OCR engine %q", kind)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, apperr.New(apperr.OCRInvalidImage, "nil region image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperr.New(apperr.OCRInvalidImage, "empty region image")
	}
	if b.Dy() < minLegibleHeight {
		img = resize.Resize(uint(b.Dx()*upscaleFactor), 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Wrap(err, apperr.OCRInvalidImage, "failed to encode region")
	}
	return buf.Bytes(), nil
}
