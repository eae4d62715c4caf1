// Package capture provides platform-agnostic frame acquisition
package capture

import (
	"bytes"
	"context"
	"crypto/md5"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"log/slog"
	"os"
	"time"

	"gamewatcher/internal/frame"
)

// Source produces frames for the watcher loop. A false return is a miss,
// not an error; the loop treats it as an empty tick and moves on.
type Source interface {
	Capture(ctx context.Context) (*frame.Buffer, bool)
	Close()
}

// backend implements platform-specific raw capture
type backend interface {
	captureRaw(ctx context.Context) []byte
	cleanup()
}

// baseSource decodes raw captures, reusing the previous decode when the
// screen bytes have not changed. Unchanged frames are still returned with a
// fresh timestamp: the stability gate downstream counts every tick.
type baseSource struct {
	backend
	lastHash    [16]byte
	lastDecoded *frame.Buffer
	tempDir     string
}

func newBase(b backend, tempDir string) *baseSource {
	return &baseSource{backend: b, tempDir: tempDir}
}

func (s *baseSource) Capture(ctx context.Context) (*frame.Buffer, bool) {
	data := s.captureRaw(ctx)
	if data == nil {
		return nil, false
	}

	// Hash first 4KB for speed; identical bytes skip the decode
	hash := md5.Sum(data[:min(len(data), 4096)])
	if hash == s.lastHash && s.lastDecoded != nil {
		f := *s.lastDecoded
		f.Timestamp = time.Now()
		return &f, true
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Error("failed to decode screenshot", "error", err)
		return nil, false
	}

	f := frame.FromImage(img)
	s.lastHash = hash
	s.lastDecoded = f
	return f, true
}

func (s *baseSource) Close() {
	s.cleanup()
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}
