package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// AuthorizationGuard resolves bearer headers to stored users.
type AuthorizationGuard struct {
	tokens ports.TokenService
	users  ports.UserRepository
}

func NewAuthorizationGuard(tokens ports.TokenService, users ports.UserRepository) *AuthorizationGuard {
	return &AuthorizationGuard{tokens: tokens, users: users}
}

// Authenticate extracts the token from an "Authorization: Bearer <token>"
// header value, verifies it at now and loads the subject. Missing, malformed,
// expired or orphaned tokens yield domain.ErrUnauthenticated; a user store
// outage is passed through so it surfaces as unavailable rather than 401.
func (g *AuthorizationGuard) Authenticate(ctx context.Context, bearerHeader string, now time.Time) (*domain.User, error) {
	token, err := bearerToken(bearerHeader)
	if err != nil {
		return nil, err
	}

	claims, err := g.tokens.Verify(token, now)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// RequireRole is an exact match; there is no role hierarchy.
func (g *AuthorizationGuard) RequireRole(user *domain.User, role domain.Role) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	if user.Role != role {
		return domain.ErrForbidden
	}
	return nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
	}
	return token, nil
}
