package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Typographic characters OCR engines emit that NFKC leaves alone.
var typographicReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`,
	"–", "-", "—", "-",
)

// Normalize canonicalizes raw OCR text: NFKC folding (which also expands
// the ellipsis rune), ASCII quotes and dashes, lowercase, and collapsed
// whitespace. Idempotent.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = typographicReplacer.Replace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Key strips trailing sentence punctuation for comparison. The stored text
// keeps it; only the fuzzy check ignores it.
func Key(normalized string) string {
	return strings.TrimRight(normalized, `!.?,;:'" `)
}

// ID derives the stable content hash of normalized text. Equal normalized
// text always yields the same ID.
func ID(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:32]
}
