// Package ws adapts coder/websocket connections to ports.Connection.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

const defaultReadLimit = 32 << 10

// AcceptOptions mirrors the subset of websocket.AcceptOptions the gateway sets.
type AcceptOptions struct {
	OriginPatterns []string
	ReadLimit      int64
}

// Conn is a server-side WebSocket session.
type Conn struct {
	ws         *websocket.Conn
	remoteAddr string
	state      atomic.Int32
	closeOnce  sync.Once
}

// Accept performs the handshake. On failure Accept has already written an
// HTTP error response.
func Accept(w http.ResponseWriter, r *http.Request, opts AcceptOptions) (*Conn, error) {
	c := &Conn{remoteAddr: r.RemoteAddr}
	c.state.Store(int32(ports.ConnConnecting))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  opts.OriginPatterns,
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		c.state.Store(int32(ports.ConnClosed))
		return nil, err
	}
	limit := opts.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	ws.SetReadLimit(limit)

	c.ws = ws
	c.state.Store(int32(ports.ConnOpen))
	return c, nil
}

func (c *Conn) State() ports.ConnState {
	return ports.ConnState(c.state.Load())
}

func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// Send writes one text frame. websocket.Conn serializes concurrent writers.
func (c *Conn) Send(ctx context.Context, msg string) error {
	if c.State() != ports.ConnOpen {
		return domain.ErrConnectionClosed
	}
	if err := c.ws.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		c.markClosed()
		return err
	}
	return nil
}

// Receive blocks for the next text frame. Binary frames are skipped. Any
// read error, including a normal close from the peer, ends the session.
func (c *Conn) Receive(ctx context.Context) (string, error) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			c.markClosed()
			return "", err
		}
		if typ == websocket.MessageText {
			return string(data), nil
		}
	}
}

// Close sends a normal closure frame. Later calls are no-ops.
func (c *Conn) Close(reason string) error {
	return c.CloseWithStatus(websocket.StatusNormalClosure, reason)
}

func (c *Conn) CloseWithStatus(code websocket.StatusCode, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(ports.ConnClosed))
		err = c.ws.Close(code, reason)
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}

func (c *Conn) markClosed() {
	c.state.Store(int32(ports.ConnClosed))
}

// IsNormalClosure reports whether err is the peer going away cleanly.
func IsNormalClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}

var _ ports.Connection = (*Conn)(nil)
