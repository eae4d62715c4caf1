// Package voicepack loads voice pack manifests and dialogue catalogs
// and resolves recognized dialogue lines to voice clips with effects.
package voicepack

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"gamewatcher/internal/dedup"
	"gamewatcher/internal/detect"
	apperr "gamewatcher/internal/errors"
	"gamewatcher/internal/playback"
)

// Manifest mirrors the voicepack.toml layout.
type Manifest struct {
	Name      string                   `toml:"name"`
	Version   string                   `toml:"version"`
	VoicesDir string                   `toml:"voices_dir"`
	Catalog   string                   `toml:"catalog"`
	Detection *DetectionConfig         `toml:"detection"`
	Defaults  ProfileConfig            `toml:"defaults"`
	Speakers  map[string]ProfileConfig `toml:"speakers"`
}

// ProfileConfig is the manifest section for one speaker.
type ProfileConfig struct {
	Dir     string   `toml:"dir"`
	Effects []string `toml:"effects"`
}

type profile struct {
	dir     string
	tags    []string
	effects []playback.Effect
}

// Pack is a loaded voice pack: speaker profiles plus the dialogue
// catalog indexed by normalized text.
type Pack struct {
	Name      string
	Version   string
	root      string
	voicesDir string
	defaults  profile
	speakers  map[string]profile
	entries   []Entry
	byKey     map[string]int
	detection *DetectionConfig
	palette   *detect.Palette
	templates *detect.TemplateSet
}

// Line is a resolved dialogue line ready for playback. Path is empty
// when the catalog has no voice clip for the line.
type Line struct {
	Entry   Entry
	Path    string
	Effects []playback.Effect
}

// Load reads a pack manifest and its dialogue catalog. catalogPath
// overrides the manifest's catalog location when non-empty.
func Load(manifestPath, catalogPath string) (*Pack, error) {
	file, err := os.Open(manifestPath)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.PackInvalid, "failed to open pack manifest %s", manifestPath)
	}
	defer file.Close()

	var m Manifest
	if err := toml.NewDecoder(file).Decode(&m); err != nil {
		return nil, apperr.Wrapf(err, apperr.PackInvalid, "failed to parse pack manifest %s", manifestPath)
	}

	root := filepath.Dir(manifestPath)
	p := &Pack{
		Name:      m.Name,
		Version:   m.Version,
		root:      root,
		voicesDir: m.VoicesDir,
		speakers:  make(map[string]profile, len(m.Speakers)),
		byKey:     make(map[string]int),
	}
	if p.Name == "" {
		p.Name = filepath.Base(root)
	}
	if p.voicesDir == "" {
		p.voicesDir = DefaultVoicesDir
	}

	p.defaults = newProfile("defaults", m.Defaults)
	for name, pc := range m.Speakers {
		p.speakers[strings.ToLower(name)] = newProfile(name, pc)
	}

	if m.Detection != nil {
		if err := p.applyDetection(m.Detection); err != nil {
			return nil, err
		}
	}

	if catalogPath == "" {
		catalogPath = m.Catalog
		if catalogPath == "" {
			catalogPath = DefaultCatalogFile
		}
		if !filepath.IsAbs(catalogPath) {
			catalogPath = filepath.Join(root, catalogPath)
		}
	}
	entries, err := loadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	p.entries = entries
	p.index()

	slog.Info("voice pack loaded",
		"name", p.Name,
		"speakers", len(p.speakers),
		"lines", len(p.entries),
		"voiced", p.voicedCount())
	return p, nil
}

func newProfile(name string, pc ProfileConfig) profile {
	fx := playback.ParseTags(pc.Effects)
	if unknown := playback.UnknownTags(fx); len(unknown) > 0 {
		slog.Warn("ignoring unknown effect tags", "speaker", name, "tags", unknown)
		kept := fx[:0]
		for _, e := range fx {
			if _, ok := e.(playback.Unknown); !ok {
				kept = append(kept, e)
			}
		}
		fx = kept
	}
	return profile{dir: pc.Dir, tags: pc.Effects, effects: fx}
}

// index keys every catalog entry by its normalized text so OCR reads
// with stray trailing punctuation still hit.
func (p *Pack) index() {
	for i, e := range p.entries {
		key := dedup.Key(dedup.Normalize(e.Text))
		if key == "" {
			slog.Debug("skipping catalog entry with empty text", "id", e.ID)
			continue
		}
		if prev, ok := p.byKey[key]; ok {
			slog.Debug("duplicate catalog text", "id", e.ID, "kept", p.entries[prev].ID)
			continue
		}
		p.byKey[key] = i
	}
}

// Resolve maps normalized dialogue text to a voice clip and the
// speaker's effect chain. A NotFound error means the line is not in
// the catalog; PackMissingVoice means the entry exists but has no
// clip, and the returned Line still carries the entry and effects.
func (p *Pack) Resolve(normalized string) (Line, error) {
	i, ok := p.byKey[dedup.Key(normalized)]
	if !ok {
		return Line{}, apperr.Newf(apperr.NotFound, "no catalog entry for %q", normalized)
	}
	e := p.entries[i]
	line := Line{Entry: e, Effects: p.effectsFor(e.Speaker)}
	if !e.HasAudio || e.AudioPath == "" {
		return line, apperr.Newf(apperr.PackMissingVoice, "no voice clip for line %s", e.ID)
	}
	line.Path = p.audioPath(e)
	return line, nil
}

func (p *Pack) effectsFor(speaker string) []playback.Effect {
	if prof, ok := p.speakers[strings.ToLower(speaker)]; ok && len(prof.effects) > 0 {
		return prof.effects
	}
	return p.defaults.effects
}

// audioPath resolves an entry's clip location. Bare filenames live
// under voices_dir/<speaker dir>/, relative paths under the pack
// root, and absolute paths are taken as-is.
func (p *Pack) audioPath(e Entry) string {
	ap := e.AudioPath
	if filepath.IsAbs(ap) {
		return filepath.Clean(ap)
	}
	if strings.ContainsRune(ap, '/') || strings.ContainsRune(ap, filepath.Separator) {
		return filepath.Join(p.root, ap)
	}
	dir := strings.ToLower(e.Speaker)
	if prof, ok := p.speakers[dir]; ok && prof.dir != "" {
		dir = prof.dir
	}
	return filepath.Join(p.root, p.voicesDir, dir, ap)
}

// Len returns the number of catalog entries.
func (p *Pack) Len() int { return len(p.entries) }

func (p *Pack) voicedCount() int {
	n := 0
	for _, e := range p.entries {
		if e.HasAudio && e.AudioPath != "" {
			n++
		}
	}
	return n
}

// SpeakerInfo summarizes one speaker for display.
type SpeakerInfo struct {
	Name   string
	Dir    string
	Tags   []string
	Lines  int
	Voiced int
}

// Speakers returns per-speaker line counts sorted by name. Speakers
// that appear only in the catalog are included without a profile.
func (p *Pack) Speakers() []SpeakerInfo {
	infos := make(map[string]*SpeakerInfo)
	for name, prof := range p.speakers {
		infos[name] = &SpeakerInfo{Name: name, Dir: prof.dir, Tags: prof.tags}
	}
	for _, e := range p.entries {
		name := strings.ToLower(e.Speaker)
		info, ok := infos[name]
		if !ok {
			info = &SpeakerInfo{Name: name}
			infos[name] = info
		}
		info.Lines++
		if e.HasAudio && e.AudioPath != "" {
			info.Voiced++
		}
	}
	out := make([]SpeakerInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
