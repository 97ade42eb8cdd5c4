package ports

import "context"

// ConnState is the lifecycle of a real-time connection.
type ConnState int32

const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "open"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one live bidirectional session as seen by the registry.
type Connection interface {
	// Send delivers a text message. It returns domain.ErrConnectionClosed once
	// the connection reached ConnClosed.
	Send(ctx context.Context, msg string) error
	// Close moves the connection to ConnClosed. Calling it twice is a no-op.
	Close(reason string) error
	State() ConnState
	RemoteAddr() string
}
