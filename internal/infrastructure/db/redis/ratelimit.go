package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

const rateLimitPrefix = "ratelimit"

// hitScript performs the fixed-window check-and-increment in one round trip.
// The key's TTL is the remainder of the window, so expiry is the rollover.
// Returns {count, allowed, pttl_ms}.
var hitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return {1, 1, tonumber(ARGV[2])}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
current = tonumber(current)
if current >= tonumber(ARGV[1]) then
  return {current, 0, ttl}
end
current = redis.call('INCR', KEYS[1])
return {current, 1, ttl}
`)

// RateLimitStore shares fixed-window counters across instances through Redis.
// Key format: ratelimit:<preset>:<identity key>
type RateLimitStore struct {
	client *redis.Client
}

// NewRateLimitStore creates a RateLimitStore wrapping the given Redis client.
func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

// Hit implements ports.RateLimitStore. The window start is derived from the
// remaining TTL, so now only anchors the returned timestamps.
func (s *RateLimitStore) Hit(ctx context.Context, key string, max int, window time.Duration, now time.Time) (domain.RateLimitWindow, bool, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.key(key)}, max, window.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.RateLimitWindow{}, false, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(res) != 3 {
		return domain.RateLimitWindow{}, false, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}

	remaining := time.Duration(res[2]) * time.Millisecond
	return domain.RateLimitWindow{
		Key:   key,
		Start: now.Add(remaining - window),
		Count: int(res[0]),
	}, res[1] == 1, nil
}

// Reset clears the counter for key.
func (s *RateLimitStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RateLimitStore) key(key string) string {
	return rateLimitPrefix + ":" + key
}
