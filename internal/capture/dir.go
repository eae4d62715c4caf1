package capture

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	apperr "gamewatcher/internal/errors"
	"gamewatcher/internal/frame"
)

// DirSource replays image files from a directory in name order, looping at
// the end. It drives the pipeline from recorded gameplay frames without a
// live game or display.
type DirSource struct {
	files []string
	idx   int
}

// NewDir creates a source over the .png/.jpg files in dir.
func NewDir(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CaptureFailed, "failed to read frame dir %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, apperr.Newf(apperr.CaptureFailed, "no image files in %s", dir)
	}
	return &DirSource{files: files}, nil
}

func (d *DirSource) Capture(ctx context.Context) (*frame.Buffer, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	path := d.files[d.idx]
	d.idx = (d.idx + 1) % len(d.files)

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, false
	}
	return frame.FromImage(img), true
}

func (d *DirSource) Close() {}
