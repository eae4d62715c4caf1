package playback

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	apperr "gamewatcher/internal/errors"
)

// Decoder opens an audio asset. The engine takes it as a dependency so
// tests can feed synthetic streams.
type Decoder func(path string) (beep.StreamSeekCloser, beep.Format, error)

// DecodeFile decodes an mp3 or wav asset picked by extension. The returned
// streamer owns the file handle.
func DecodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, apperr.Wrap(err, apperr.AudioDecodeFailed, "failed to open audio asset")
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, apperr.Newf(apperr.AudioDecodeFailed, "unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, apperr.Wrapf(err, apperr.AudioDecodeFailed, "failed to decode %s", filepath.Base(path))
	}
	return s, format, nil
}
