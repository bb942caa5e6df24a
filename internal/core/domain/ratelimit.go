package domain

import "time"

// RateLimitConfig is one named limit preset. Counters of distinct presets
// never share state.
type RateLimitConfig struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// RateLimitWindow is the fixed window currently tracked for one key.
type RateLimitWindow struct {
	Key   string
	Start time.Time
	Count int
}

// Contains reports whether t falls inside [Start, Start+window).
func (w RateLimitWindow) Contains(t time.Time, window time.Duration) bool {
	return !t.Before(w.Start) && t.Before(w.Start.Add(window))
}

// ResetAt returns the instant the window rolls over.
func (w RateLimitWindow) ResetAt(window time.Duration) time.Time {
	return w.Start.Add(window)
}
