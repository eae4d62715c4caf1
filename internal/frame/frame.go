// Package frame provides the decoded pixel buffer shared across the pipeline
package frame

import (
	"image"
	"image/draw"
	"time"
)

// Buffer is a decoded RGBA frame. Pix holds 4 bytes per pixel in row-major
// order; pipeline stages read it in bulk rather than through image.At.
type Buffer struct {
	Pix       []uint8
	Width     int
	Height    int
	Stride    int
	Timestamp time.Time
}

// FromImage converts any image into a Buffer. When the source is already an
// *image.RGBA anchored at the origin the pixel slice is shared, not copied.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) {
		return &Buffer{
			Pix:       rgba.Pix,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Stride:    rgba.Stride,
			Timestamp: time.Now(),
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{
		Pix:       rgba.Pix,
		Width:     rgba.Rect.Dx(),
		Height:    rgba.Rect.Dy(),
		Stride:    rgba.Stride,
		Timestamp: time.Now(),
	}
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// RGBA returns the pixel at (x, y). Hot paths index Pix directly; this is a
// convenience for probes and tests.
func (f *Buffer) RGBA(x, y int) (r, g, b, a uint8) {
	i := y*f.Stride + x*4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
}

// Crop returns a copy of the rectangle clipped to the frame bounds. The copy
// owns its pixels, so it stays valid after the source frame is released.
func (f *Buffer) Crop(r image.Rectangle) *Buffer {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return &Buffer{Timestamp: f.Timestamp}
	}

	w, h := r.Dx(), r.Dy()
	out := &Buffer{
		Pix:       make([]uint8, w*h*4),
		Width:     w,
		Height:    h,
		Stride:    w * 4,
		Timestamp: f.Timestamp,
	}
	for y := 0; y < h; y++ {
		src := (r.Min.Y+y)*f.Stride + r.Min.X*4
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], f.Pix[src:src+w*4])
	}
	return out
}

// ToImage wraps the buffer as *image.RGBA without copying.
func (f *Buffer) ToImage() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}
