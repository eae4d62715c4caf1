// Package stability gates frames so detection only runs on settled scenes
package stability

// Sampling constants
const (
	// Grid step between sampled pixels in both axes
	GridStep = 16

	// Per-channel absolute difference for a sample to count as matching
	ChannelTolerance = 12
)
