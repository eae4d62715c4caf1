// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection command rate limiting
	RateLimitMessages = 20          // Max commands per connection per window
	RateLimitWindow   = time.Second // Sliding window duration

	// Write deadline for event fan-out; a stalled consumer misses
	// events instead of blocking the broadcaster.
	WriteTimeout = 5 * time.Second
)
