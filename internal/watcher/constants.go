package watcher

// Loop tuning constants
const (
	// Progress telemetry fires every this many capture cycles
	TelemetryInterval = 30

	// Buffered events held for the consumer; Emit drops past this
	EventBuffer = 64

	// Hamming distance (of the 64 pHash bits) at or under which a
	// promoted crop counts as the content already sent to OCR
	MaxHashDistance = 3

	// Fallback when config leaves the history size unset
	DefaultHistorySize = 200
)
