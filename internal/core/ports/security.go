package ports

import (
	"time"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// PasswordHasher produces salted one-way digests. Verify never errors on a
// routine mismatch, it just returns false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenService issues and verifies self-contained bearer tokens.
type TokenService interface {
	Issue(subject string, role domain.Role, now time.Time) (string, error)
	Verify(token string, now time.Time) (*domain.TokenClaims, error)
}
