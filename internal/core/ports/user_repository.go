package ports

import (
	"context"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// UserRepository is the user-lookup collaborator. Implementations return
// domain.ErrUserNotFound, domain.ErrDuplicateIdentity, or an error wrapping
// domain.ErrStoreUnavailable when the backing store cannot be reached.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
