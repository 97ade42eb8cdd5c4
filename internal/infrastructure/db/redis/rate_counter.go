package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// incrWindowScript increments the counter and starts the window on the first
// hit, in one server-side step. A key left without a TTL (e.g. written by an
// older client) gets one so it cannot block a client forever.
//
// KEYS[1] counter key, ARGV[1] window in milliseconds.
// Returns {count, pttl_ms}.
var incrWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateCounter is the shared fixed-window counter store.
type RateCounter struct {
	client redis.Scripter
}

func NewRateCounter(client redis.Scripter) *RateCounter {
	return &RateCounter{client: client}
}

// Incr runs the window script. now is ignored: the window is measured by the
// Redis server clock so every gateway instance agrees on it.
func (c *RateCounter) Incr(ctx context.Context, key string, window time.Duration, _ time.Time) (int64, time.Duration, error) {
	res, err := incrWindowScript.Run(ctx, c.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate counter incr: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate counter incr: unexpected reply %v", res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
