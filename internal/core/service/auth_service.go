package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenService
	log    zerolog.Logger

	// dummyDigest is verified against when the username is unknown so both
	// login failure paths do the same amount of hashing work.
	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Register creates a user with the default role.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.create(ctx, "register", username, password, domain.RoleUser)
}

func (s *AuthService) create(ctx context.Context, op, username, password string, role domain.Role) (*domain.User, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(op, "error").Inc()
		return nil, err
	}

	user, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: digest,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.AuthAttemptsTotal.WithLabelValues(op, "duplicate").Inc()
			s.log.Debug().Str("username", username).Msg("username already registered")
			return nil, domain.ErrDuplicateIdentity
		}
		metrics.AuthAttemptsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("register user: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues(op, "success").Inc()
	s.log.Info().Str("username", user.Username).Str("role", user.Role.String()).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues an access token. An unknown username
// and a wrong password both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string, now time.Time) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.hasher.Verify(password, s.dummy())
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return "", domain.ErrInvalidCredentials
	case err != nil:
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.Role, now)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return "", fmt.Errorf("login: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return token, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("timing-equalizer")
	})
	return s.dummyDigest
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// EnsureAdmin creates the bootstrap admin account unless the username is
// already taken. An existing account is left as is, whatever its role.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.log.Debug().Str("username", username).Msg("admin account already present")
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("ensure admin: %w", err)
	}

	_, err = s.create(ctx, "bootstrap", username, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		return nil
	}
	return err
}
