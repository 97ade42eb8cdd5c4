package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

const (
	DefaultRateLimit  = 100
	DefaultRateWindow = 60 * time.Second
	DefaultRatePrefix = "ratelimit:"
)

// RateLimitConfig configures FixedWindowLimiter.
type RateLimitConfig struct {
	MaxRequests int64
	Window      time.Duration
	KeyPrefix   string
	// FailOpen admits traffic while the counter store is unreachable. The
	// default (false) rejects it with domain.ErrStoreUnavailable.
	FailOpen bool
}

// FixedWindowLimiter admits at most MaxRequests per client key per window.
// Every call, admitted or not, increments the shared counter.
type FixedWindowLimiter struct {
	store ports.RateCounterStore
	cfg   RateLimitConfig
	log   zerolog.Logger
}

func NewFixedWindowLimiter(store ports.RateCounterStore, cfg RateLimitConfig, log zerolog.Logger) *FixedWindowLimiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateWindow
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRatePrefix
	}
	return &FixedWindowLimiter{store: store, cfg: cfg, log: log}
}

func (l *FixedWindowLimiter) Limit() int64 { return l.cfg.MaxRequests }

func (l *FixedWindowLimiter) Window() time.Duration { return l.cfg.Window }

// Admit performs one atomic increment-and-fetch for clientKey. On a store
// failure the decision follows the configured policy: fail-open returns an
// admitted decision and no error, fail-closed returns a rejected decision and
// an error wrapping domain.ErrStoreUnavailable.
func (l *FixedWindowLimiter) Admit(ctx context.Context, clientKey string, now time.Time) (domain.RateDecision, error) {
	count, ttl, err := l.store.Incr(ctx, l.cfg.KeyPrefix+clientKey, l.cfg.Window, now)
	if err != nil {
		if l.cfg.FailOpen {
			metrics.RateLimitDecisionsTotal.WithLabelValues("store_error_open").Inc()
			l.log.Warn().Err(err).Str("client", clientKey).Msg("rate counter unavailable, admitting request")
			return domain.RateDecision{Allowed: true, Limit: l.cfg.MaxRequests, Remaining: l.cfg.MaxRequests}, nil
		}
		metrics.RateLimitDecisionsTotal.WithLabelValues("store_error_closed").Inc()
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return domain.RateDecision{Limit: l.cfg.MaxRequests, RetryAfter: l.cfg.Window}, fmt.Errorf("rate limit: %w", err)
	}

	if ttl <= 0 || ttl > l.cfg.Window {
		ttl = l.cfg.Window
	}
	d := domain.RateDecision{
		Allowed:    count <= l.cfg.MaxRequests,
		Count:      count,
		Limit:      l.cfg.MaxRequests,
		Remaining:  max(l.cfg.MaxRequests-count, 0),
		RetryAfter: ttl,
	}

	if d.Allowed {
		metrics.RateLimitDecisionsTotal.WithLabelValues("admitted").Inc()
	} else {
		metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
		l.log.Debug().Str("client", clientKey).Int64("count", count).Msg("rate limit exceeded")
	}
	return d, nil
}
