package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	apperr "gamewatcher/internal/errors"
)

func testRegion(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{240, 240, 224, 255})
		}
	}
	return img
}

func TestEncodePNG(t *testing.T) {
	data, err := encodePNG(testRegion(320, 80))
	if err != nil {
		t.Fatalf("encodePNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 80 {
		t.Errorf("legible region resized: %v", img.Bounds())
	}
}

func TestEncodePNGUpscalesSmallRegions(t *testing.T) {
	data, err := encodePNG(testRegion(200, 30))
	if err != nil {
		t.Fatalf("encodePNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if img.Bounds().Dx() != 200*upscaleFactor {
		t.Errorf("small region not upscaled: %v", img.Bounds())
	}
}

func TestEncodePNGRejectsBadInput(t *testing.T) {
	if _, err := encodePNG(nil); !apperr.IsCode(err, apperr.OCRInvalidImage) {
		t.Errorf("nil image: expected OCRInvalidImage, got %v", err)
	}
	if _, err := encodePNG(image.NewRGBA(image.Rect(0, 0, 0, 0))); !apperr.IsCode(err, apperr.OCRInvalidImage) {
		t.Errorf("empty image: expected OCRInvalidImage, got %v", err)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	eng, err := New("http", "eng", "http://localhost:8800", time.Second)
	if err != nil {
		t.Fatalf("New(http) failed: %v", err)
	}
	if _, ok := eng.(*HTTPEngine); !ok {
		t.Errorf("expected HTTPEngine, got %T", eng)
	}

	if _, err := New("carrier-pigeon", "eng", "", time.Second); !apperr.IsCode(err, apperr.ConfigInvalid) {
		t.Errorf("expected ConfigInvalid, got %v", err)
	}
}

func TestNewTesseractWithoutBinary(t *testing.T) {
	eng, err := NewTesseract("eng", time.Second)
	if err != nil {
		// Machines without tesseract must get a classified error.
		if !apperr.IsCode(err, apperr.OCRUnavailable) {
			t.Errorf("expected OCRUnavailable, got %v", err)
		}
		return
	}
	if eng.Name() != "tesseract" {
		t.Errorf("unexpected engine name %q", eng.Name())
	}
}
