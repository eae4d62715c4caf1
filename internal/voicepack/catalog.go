package voicepack

import (
	"encoding/json"
	"os"

	apperr "gamewatcher/internal/errors"
)

// Entry is one line of the dialogue catalog. Field names follow the
// catalog files shipped with existing packs.
type Entry struct {
	ID        string `json:"Id"`
	Text      string `json:"Text"`
	Speaker   string `json:"Speaker"`
	AudioPath string `json:"AudioPath"`
	HasAudio  bool   `json:"HasAudio"`
}

func loadCatalog(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.PackInvalid, "failed to read dialogue catalog %s", path)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperr.Wrapf(err, apperr.PackInvalid, "failed to parse dialogue catalog %s", path)
	}
	return entries, nil
}
