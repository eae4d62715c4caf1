package playback

import (
	"strconv"
	"strings"
	"time"
)

// Effect is one parsed DSP directive from a speaker profile. Tags are
// parsed once at pack load, not per playback.
type Effect interface {
	effect()
}

// PitchShift resamples the stream by a factor in [Min, Max]. Min == Max
// plays a fixed factor; otherwise each playback picks a random factor in
// the range.
type PitchShift struct {
	Min, Max float64
}

// Echo is one feedback delay stage.
type Echo struct {
	Delay time.Duration
	Decay float64
	Wet   float64
}

// Volume is a linear gain multiplier, 1.0 = unchanged.
type Volume struct {
	Level float64
}

// Unknown is a tag the parser did not recognize. It is carried through so
// loaders can report it, and ignored at playback.
type Unknown struct {
	Tag string
}

func (PitchShift) effect() {}
func (Echo) effect()       {}
func (Volume) effect()     {}
func (Unknown) effect()    {}

// ParseTags parses a speaker profile's effect tag list. Grammar:
//
//	pitch:<factor>          fixed pitch factor
//	pitch:<min>-<max>       random factor per playback
//	echo:<delay>:<decay>:<wet>
//	echo:hall               short+long echo pair
//	volume:<level>
//
// Unrecognized tags come back as Unknown rather than failing the load.
func ParseTags(tags []string) []Effect {
	var out []Effect
	for _, tag := range tags {
		out = append(out, parseTag(tag)...)
	}
	return out
}

func parseTag(tag string) []Effect {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(tag)), ":")
	switch parts[0] {
	case "pitch":
		if len(parts) == 2 {
			if lo, hi, ok := parseFactorRange(parts[1]); ok {
				return []Effect{PitchShift{Min: lo, Max: hi}}
			}
		}
	case "echo":
		if len(parts) == 2 && parts[1] == "hall" {
			out := make([]Effect, len(hallEchoes))
			for i, e := range hallEchoes {
				out[i] = e
			}
			return out
		}
		if len(parts) == 4 {
			delay, errD := time.ParseDuration(parts[1])
			decay, errC := strconv.ParseFloat(parts[2], 64)
			wet, errW := strconv.ParseFloat(parts[3], 64)
			if errD == nil && errC == nil && errW == nil && delay > 0 {
				return []Effect{Echo{Delay: delay, Decay: decay, Wet: wet}}
			}
		}
	case "volume":
		if len(parts) == 2 {
			if level, err := strconv.ParseFloat(parts[1], 64); err == nil {
				return []Effect{Volume{Level: level}}
			}
		}
	}
	return []Effect{Unknown{Tag: tag}}
}

// parseFactorRange reads "1.2" or "0.9-1.1".
func parseFactorRange(s string) (lo, hi float64, ok bool) {
	if lowStr, highStr, split := strings.Cut(s, "-"); split {
		low, errL := strconv.ParseFloat(lowStr, 64)
		high, errH := strconv.ParseFloat(highStr, 64)
		if errL != nil || errH != nil || low > high {
			return 0, 0, false
		}
		return low, high, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, false
	}
	return f, f, true
}

// UnknownTags collects the unrecognized tags from a parsed list.
func UnknownTags(effects []Effect) []string {
	var tags []string
	for _, e := range effects {
		if u, isUnknown := e.(Unknown); isUnknown {
			tags = append(tags, u.Tag)
		}
	}
	return tags
}
