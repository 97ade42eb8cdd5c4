package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// RateCounterStore is the shared fixed-window counter.
type RateCounterStore interface {
	// Incr atomically increments key and returns the post-increment count
	// together with the time left until the key expires. The expiry is set to
	// window only when the post-increment count is 1. now is used by stores
	// that keep their own clock; server-side stores ignore it.
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (count int64, ttl time.Duration, err error)
}

type RateLimiter interface {
	Admit(ctx context.Context, clientKey string, now time.Time) (domain.RateDecision, error)
}
