package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how likely b is a noisy re-read of a, in [0, 1]. It is
// the better of a character-level edit-distance ratio and a word-survival
// check: OCR noise displaces and garbles words without removing them, so a
// new read that still carries every word of the previous line is the same
// line even when the raw edit distance says otherwise.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	sim := editSimilarity(a, b)
	if c := containment(a, b); c > sim {
		sim = c
	}
	return sim
}

// editSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
func editSimilarity(a, b string) float64 {
	longer := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longer == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longer)
}

// containment is the fraction of a's words with a close enough counterpart
// in b, each counterpart consumed at most once.
func containment(a, b string) float64 {
	if utf8.RuneCountInString(b) > int(float64(utf8.RuneCountInString(a))*containmentMaxGrowth) {
		return 0
	}

	words := strings.Fields(a)
	pool := strings.Fields(b)
	if len(words) == 0 || len(pool) == 0 {
		return 0
	}

	used := make([]bool, len(pool))
	matched := 0
	for _, w := range words {
		best, bestSim := -1, 0.0
		for i, c := range pool {
			if used[i] {
				continue
			}
			if s := editSimilarity(w, c); s > bestSim {
				best, bestSim = i, s
			}
		}
		if best >= 0 && bestSim >= wordMatchMin {
			used[best] = true
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
