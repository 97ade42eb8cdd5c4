package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string, now time.Time) (string, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Guard resolves bearer credentials to a stored user and checks roles.
type Guard interface {
	Authenticate(ctx context.Context, bearerHeader string, now time.Time) (*domain.User, error)
	RequireRole(user *domain.User, role domain.Role) error
}
