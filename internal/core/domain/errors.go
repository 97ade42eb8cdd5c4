package domain

import "errors"

// Expected outcomes, mapped to stable status codes by the API layer.
var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrDuplicateIdentity  = errors.New("username already registered")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrForbidden          = errors.New("operation not permitted")
	ErrRateLimited        = errors.New("too many requests")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoteNotFound       = errors.New("note not found")
)

// ErrStoreUnavailable marks an infrastructure fault: a backing store (counter
// store, user store) could not be reached. Adapters wrap the driver error with it.
var ErrStoreUnavailable = errors.New("backing store unavailable")

var (
	ErrRegistryClosed   = errors.New("connection registry closed")
	ErrConnectionClosed = errors.New("connection closed")
)
