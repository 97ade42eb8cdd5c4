package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

const defaultSendTimeout = 5 * time.Second

// Handle identifies one registered connection.
type Handle uuid.UUID

func (h Handle) String() string { return uuid.UUID(h).String() }

// ConnectionRegistry owns the set of live real-time connections. The set is
// only touched under mu; sends happen on a snapshot, outside the lock.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	conns  map[Handle]ports.Connection
	closed bool

	sendTimeout time.Duration
	log         zerolog.Logger
}

func NewConnectionRegistry(sendTimeout time.Duration, log zerolog.Logger) *ConnectionRegistry {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &ConnectionRegistry{
		conns:       make(map[Handle]ports.Connection),
		sendTimeout: sendTimeout,
		log:         log,
	}
}

// Register adds an open connection to the live set.
func (r *ConnectionRegistry) Register(conn ports.Connection) (Handle, error) {
	if conn.State() == ports.ConnClosed {
		return Handle{}, domain.ErrConnectionClosed
	}
	h := Handle(uuid.New())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Handle{}, domain.ErrRegistryClosed
	}
	r.conns[h] = conn
	n := len(r.conns)
	r.mu.Unlock()

	metrics.WSConnectionsActive.Inc()
	r.log.Info().Str("conn", h.String()).Str("remote", conn.RemoteAddr()).Int("active", n).Msg("connection registered")
	return h, nil
}

// Unregister removes h from the live set. It reports whether h was present;
// unknown or already removed handles are a no-op.
func (r *ConnectionRegistry) Unregister(h Handle) bool {
	r.mu.Lock()
	_, ok := r.conns[h]
	delete(r.conns, h)
	n := len(r.conns)
	r.mu.Unlock()

	if ok {
		metrics.WSConnectionsActive.Dec()
		r.log.Info().Str("conn", h.String()).Int("active", n).Msg("connection unregistered")
	}
	return ok
}

// Len returns the number of registered connections.
func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers msg to every registered connection and returns how many
// deliveries succeeded. A connection whose send fails is unregistered and
// closed; the remaining deliveries are unaffected.
func (r *ConnectionRegistry) Broadcast(ctx context.Context, msg string) int {
	r.mu.RLock()
	targets := make(map[Handle]ports.Connection, len(r.conns))
	for h, c := range r.conns {
		targets[h] = c
	}
	r.mu.RUnlock()

	metrics.WSBroadcastsTotal.Inc()
	if len(targets) == 0 {
		return 0
	}

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed []Handle
	)
	for h, c := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
			defer cancel()
			if err := c.Send(sendCtx, msg); err != nil {
				r.log.Debug().Err(err).Str("conn", h.String()).Msg("delivery failed")
				failMu.Lock()
				failed = append(failed, h)
				failMu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, h := range failed {
		metrics.WSDeliveryFailuresTotal.Inc()
		if r.Unregister(h) {
			_ = targets[h].Close("delivery failed")
		}
	}
	return len(targets) - len(failed)
}

// Close refuses further registrations and closes every live connection.
func (r *ConnectionRegistry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	conns := r.conns
	r.conns = make(map[Handle]ports.Connection)
	r.mu.Unlock()

	for h, c := range conns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.WSConnectionsActive.Dec()
		if err := c.Close("server shutting down"); err != nil {
			r.log.Debug().Err(err).Str("conn", h.String()).Msg("close on shutdown")
		}
	}
	return nil
}
