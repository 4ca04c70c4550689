package binance

import (
	"testing"
	"time"
)

func TestNextDelaySequence(t *testing.T) {
	base := 1000 * time.Millisecond
	max := 30000 * time.Millisecond
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	for attempt, w := range want {
		if got := NextDelay(attempt, base, max); got != w {
			t.Fatalf("NextDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestNextDelayCapped(t *testing.T) {
	base := time.Second
	max := 30 * time.Second
	for attempt := 5; attempt < 64; attempt++ {
		if got := NextDelay(attempt, base, max); got != max {
			t.Fatalf("NextDelay(%d) = %v, want cap %v", attempt, got, max)
		}
	}
}

func TestNextDelayDefaults(t *testing.T) {
	if got := NextDelay(0, 0, 0); got != DefaultBaseDelay {
		t.Fatalf("NextDelay with zero bounds = %v, want %v", got, DefaultBaseDelay)
	}
}
