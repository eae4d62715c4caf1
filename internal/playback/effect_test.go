package playback

import (
	"reflect"
	"testing"
	"time"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []Effect
	}{
		{"fixed pitch", []string{"pitch:1.2"}, []Effect{PitchShift{Min: 1.2, Max: 1.2}}},
		{"pitch range", []string{"pitch:0.9-1.1"}, []Effect{PitchShift{Min: 0.9, Max: 1.1}}},
		{"echo", []string{"echo:120ms:0.45:0.5"}, []Effect{Echo{Delay: 120 * time.Millisecond, Decay: 0.45, Wet: 0.5}}},
		{"hall preset", []string{"echo:hall"}, []Effect{hallEchoes[0], hallEchoes[1]}},
		{"volume", []string{"volume:0.8"}, []Effect{Volume{Level: 0.8}}},
		{"case and spacing", []string{"  PITCH:1.5  "}, []Effect{PitchShift{Min: 1.5, Max: 1.5}}},
		{"unknown tag", []string{"reverb:9"}, []Effect{Unknown{Tag: "reverb:9"}}},
		{"bad pitch value", []string{"pitch:abc"}, []Effect{Unknown{Tag: "pitch:abc"}}},
		{"inverted range", []string{"pitch:1.5-0.9"}, []Effect{Unknown{Tag: "pitch:1.5-0.9"}}},
		{"zero delay echo", []string{"echo:0ms:0.4:0.5"}, []Effect{Unknown{Tag: "echo:0ms:0.4:0.5"}}},
		{
			"combined profile",
			[]string{"pitch:1.1", "echo:90ms:0.3:0.4", "volume:0.7"},
			[]Effect{
				PitchShift{Min: 1.1, Max: 1.1},
				Echo{Delay: 90 * time.Millisecond, Decay: 0.3, Wet: 0.4},
				Volume{Level: 0.7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.tags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%v) = %#v, want %#v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestUnknownTags(t *testing.T) {
	fx := ParseTags([]string{"pitch:1.0", "zap", "volume:x"})
	got := UnknownTags(fx)
	want := []string{"zap", "volume:x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnknownTags = %v, want %v", got, want)
	}

	if tags := UnknownTags(ParseTags([]string{"pitch:1.0"})); tags != nil {
		t.Errorf("clean profile should have no unknown tags, got %v", tags)
	}
}
