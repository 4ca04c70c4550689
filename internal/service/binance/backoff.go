package binance

import "time"

const (
	// Per-connection reconnect backoff bounds.
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 30 * time.Second
)

// NextDelay returns the reconnect delay for the given attempt number:
// min(base * 2^attempt, max). Pure function so backoff is testable without
// a live socket; the attempt counter lives on the connection state.
func NextDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
