package ocr

import (
	"bytes"
	"context"
	"image"
	"os/exec"
	"strings"
	"time"

	apperr "gamewatcher/internal/errors"
)

// Tesseract runs the tesseract binary over stdin/stdout.
type Tesseract struct {
	path    string
	lang    string
	timeout time.Duration
}

// NewTesseract locates the tesseract binary in PATH.
func NewTesseract(lang string, timeout time.Duration) (*Tesseract, error) {
	path, err := exec.LookPath(tesseractBinary)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.OCRUnavailable, "tesseract not found in PATH")
	}
	if lang == "" {
		lang = DefaultLang
	}
	return &Tesseract{path: path, lang: lang, timeout: timeout}, nil
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize pipes the region through tesseract and returns the text.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout", "-l", t.lang, "--psm", DefaultPSM)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", apperr.Wrap(ctx.Err(), apperr.Timeout, "tesseract timed out")
		}
		return "", apperr.Wrapf(err, apperr.OCRExtractFailed, "tesseract failed: %s", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
