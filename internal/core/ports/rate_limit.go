package ports

import (
	"context"
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// RateLimitStore holds fixed-window counters. Hit must atomically either
// start a new window at now (count 1), or increment the current window when
// it is below max, or leave it untouched and report allowed=false.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, max int, window time.Duration, now time.Time) (domain.RateLimitWindow, bool, error)
}

// RateLimiter is the check-and-increment contract consumed by the middleware.
type RateLimiter interface {
	Check(ctx context.Context, key string, cfg domain.RateLimitConfig) (domain.RateLimitWindow, bool, error)
}
