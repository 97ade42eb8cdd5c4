package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/api/middleware"
	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// currentUser returns the user injected by the Authenticate middleware. A
// missing user means the route was mounted without the guard, which is
// treated as unauthenticated rather than a server fault.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}
