package handler

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/core/service"
	"github.com/99minutos/auth-gateway/internal/infrastructure/ws"
)

const (
	// MessagePrefix is prepended to every rebroadcast chat message.
	MessagePrefix = "message: "
	// DepartureNotice is broadcast after a client leaves.
	DepartureNotice = "client disconnected"

	departureTimeout = 5 * time.Second
)

// ConnectionHub is the subset of the connection registry the chat room needs.
type ConnectionHub interface {
	Register(conn ports.Connection) (service.Handle, error)
	Unregister(h service.Handle) bool
	Broadcast(ctx context.Context, msg string) int
}

// ChatOptions configures the /ws endpoint.
type ChatOptions struct {
	Accept ws.AcceptOptions
	// MessagesPerSecond caps inbound frames per connection; zero disables
	// the throttle.
	MessagesPerSecond float64
	MessageBurst      int
}

// ChatHandler runs the broadcast room: every text frame a client sends is
// rebroadcast to all connected clients, the sender included.
type ChatHandler struct {
	hub  ConnectionHub
	opts ChatOptions
	log  zerolog.Logger
}

func NewChatHandler(hub ConnectionHub, opts ChatOptions, log zerolog.Logger) *ChatHandler {
	if opts.MessagesPerSecond > 0 && opts.MessageBurst <= 0 {
		opts.MessageBurst = 1
	}
	return &ChatHandler{hub: hub, opts: opts, log: log}
}

// Serve handles GET /ws. It returns only when the client is gone.
func (h *ChatHandler) Serve(c echo.Context) error {
	conn, err := ws.Accept(c.Response(), c.Request(), h.opts.Accept)
	if err != nil {
		// Accept has already written the HTTP error.
		h.log.Debug().Err(err).Str("remote", c.RealIP()).Msg("websocket handshake rejected")
		return nil
	}

	handle, err := h.hub.Register(conn)
	if err != nil {
		_ = conn.CloseWithStatus(websocket.StatusGoingAway, "server shutting down")
		return nil
	}
	defer h.leave(handle, conn)

	var limiter *rate.Limiter
	if h.opts.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.MessageBurst)
	}

	ctx := c.Request().Context()
	for {
		text, err := conn.Receive(ctx)
		if err != nil {
			if !ws.IsNormalClosure(err) {
				h.log.Debug().Err(err).Str("conn", handle.String()).Msg("websocket read ended")
			}
			return nil
		}
		if limiter != nil && !limiter.Allow() {
			h.log.Info().Str("conn", handle.String()).Msg("websocket message rate exceeded")
			_ = conn.CloseWithStatus(websocket.StatusPolicyViolation, "message rate exceeded")
			return nil
		}
		h.hub.Broadcast(ctx, MessagePrefix+text)
	}
}

// leave removes the connection before announcing the departure, so the
// departing client never receives its own notice.
func (h *ChatHandler) leave(handle service.Handle, conn *ws.Conn) {
	h.hub.Unregister(handle)
	_ = conn.Close("")

	ctx, cancel := context.WithTimeout(context.Background(), departureTimeout)
	defer cancel()
	h.hub.Broadcast(ctx, DepartureNotice)
}
