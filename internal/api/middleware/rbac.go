package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

// RequireRole enforces an exact role match. It must run after Authenticate.
func RequireRole(guard ports.Guard, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := CurrentUser(c)
			if err := guard.RequireRole(user, role); err != nil {
				metrics.GuardRejectionsTotal.WithLabelValues("forbidden").Inc()
				return err
			}
			return next(c)
		}
	}
}
