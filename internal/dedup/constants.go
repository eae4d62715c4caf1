package dedup

// Deduplication tuning constants
const (
	// Similarity at or above this marks the new text as a re-read of the
	// previous line
	DefaultThreshold = 0.95

	// Minimum word-level similarity for a garbled word to count as a
	// survivor of the original
	wordMatchMin = 0.5

	// Containment only applies while the new text has not grown past this
	// multiple of the previous text's length; a short line embedded in a
	// genuinely longer new line must not read as a duplicate
	containmentMaxGrowth = 1.5
)
