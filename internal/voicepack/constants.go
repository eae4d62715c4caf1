package voicepack

import "time"

// Pack layout defaults
const (
	DefaultVoicesDir   = "voices"
	DefaultCatalogFile = "dialogue_catalog.json"
)

// Session recorder defaults
const (
	DefaultRecorderMaxSize    = 20
	DefaultRecorderFlushDelay = 2 * time.Second

	sessionFileFormat = "session-20060102-150405.jsonl"
)
