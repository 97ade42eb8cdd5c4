package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

// ContextUserKey is the echo context key holding the authenticated *domain.User.
const ContextUserKey = "auth.user"

// Authenticate resolves the Authorization header through guard and injects the
// user into the context. Failures are returned to the central error handler.
func Authenticate(guard ports.Guard, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := guard.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization), now())
			if err != nil {
				metrics.GuardRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return err
			}
			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

// CurrentUser returns the user injected by Authenticate.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(ContextUserKey).(*domain.User)
	return user, ok && user != nil
}
