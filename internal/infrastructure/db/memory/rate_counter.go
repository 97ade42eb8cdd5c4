// Package memory holds single-process implementations of the shared stores,
// used when the gateway runs as one instance or in tests.
package memory

import (
	"context"
	"sync"
	"time"
)

const sweepThreshold = 10_000

type window struct {
	count     int64
	expiresAt time.Time
}

// RateCounter is a mutex-guarded fixed-window counter. Each Incr is atomic
// with respect to every other call.
type RateCounter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateCounter() *RateCounter {
	return &RateCounter{windows: make(map[string]*window)}
}

func (c *RateCounter) Incr(_ context.Context, key string, ttl time.Duration, now time.Time) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.windows) >= sweepThreshold {
		c.sweep(now)
	}

	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(ttl)}
		c.windows[key] = w
	}
	w.count++
	return w.count, w.expiresAt.Sub(now), nil
}

// sweep drops expired windows. Callers hold mu.
func (c *RateCounter) sweep(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.expiresAt) {
			delete(c.windows, k)
		}
	}
}
