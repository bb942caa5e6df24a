// Package memory holds process-local implementations of core ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

type window struct {
	start    time.Time
	count    int
	duration time.Duration
}

// RateLimitStore keeps fixed-window counters in a mutex-guarded map. It is
// the default store and the one used in tests; multi-instance deployments
// should use the Redis store instead.
type RateLimitStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{windows: make(map[string]*window)}
}

// Hit implements ports.RateLimitStore.
func (s *RateLimitStore) Hit(_ context.Context, key string, max int, d time.Duration, now time.Time) (domain.RateLimitWindow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A clock that steps backwards stays inside the current window.
	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(d)) {
		w = &window{start: now, count: 1, duration: d}
		s.windows[key] = w
		return domain.RateLimitWindow{Key: key, Start: w.start, Count: w.count}, true, nil
	}

	if w.count >= max {
		return domain.RateLimitWindow{Key: key, Start: w.start, Count: w.count}, false, nil
	}

	w.count++
	return domain.RateLimitWindow{Key: key, Start: w.start, Count: w.count}, true, nil
}

// Len returns the number of tracked windows.
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep drops windows that ended more than one duration before now and
// returns how many were removed.
func (s *RateLimitStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if now.Sub(w.start) > 2*w.duration {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *RateLimitStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}
