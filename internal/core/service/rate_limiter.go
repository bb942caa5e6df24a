package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

var ErrInvalidRateLimit = errors.New("rate limit requires a name, a positive max and a positive window")

// RateLimiter applies fixed-window limits on top of a pluggable counter store.
type RateLimiter struct {
	store ports.RateLimitStore
	now   Clock
	log   zerolog.Logger
}

// NewRateLimiter wraps store. A nil clock means time.Now.
func NewRateLimiter(store ports.RateLimitStore, now Clock, log zerolog.Logger) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, now: now, log: log}
}

// Check counts one request for key under cfg and reports whether it is
// allowed. Counting and the decision happen in one store call; a rejected
// request leaves the window count at cfg.MaxRequests.
func (l *RateLimiter) Check(ctx context.Context, key string, cfg domain.RateLimitConfig) (domain.RateLimitWindow, bool, error) {
	if cfg.Name == "" || cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return domain.RateLimitWindow{}, false, ErrInvalidRateLimit
	}

	win, allowed, err := l.store.Hit(ctx, cfg.Name+":"+key, cfg.MaxRequests, cfg.Window, l.now())
	if err != nil {
		return domain.RateLimitWindow{}, false, fmt.Errorf("rate limit %s: %w", cfg.Name, err)
	}

	if !allowed {
		l.log.Debug().
			Str("preset", cfg.Name).
			Str("key", key).
			Int("count", win.Count).
			Time("reset_at", win.ResetAt(cfg.Window)).
			Msg("rate limit exceeded")
	}
	return win, allowed, nil
}
