package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/infrastructure/security"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrDuplicateIdentity
	}
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%d", len(r.users)+1)
	r.users[c.Username] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTokens(t *testing.T) *security.JWTService {
	t.Helper()
	tokens, err := security.NewJWTService(security.TokenConfig{Secret: []byte("test-secret"), TTL: 30 * time.Minute})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func newAuthSvc(t *testing.T, repo *stubUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, security.NewBcryptHasher(bcrypt.MinCost), newTestTokens(t), zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo)

	user, err := svc.Register(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthSvc(t, newStubUserRepo())

	if _, err := svc.Register(context.Background(), "alice", "secret123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice", "anything"); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo)

	if _, err := svc.Register(context.Background(), "carol", "s3cret-pass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(context.Background(), "carol", "s3cret-pass", testNow)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims, err := newTestTokens(t).Verify(token, testNow)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "carol" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo)
	_, _ = svc.Register(context.Background(), "dave", "goodpass")

	_, errWrongPass := svc.Login(context.Background(), "dave", "badpass", testNow)
	_, errNoUser := svc.Login(context.Background(), "ghost", "badpass", testNow)

	if !errors.Is(errWrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", errWrongPass)
	}
	if errWrongPass != errNoUser {
		t.Fatalf("expected identical errors, got %v and %v", errWrongPass, errNoUser)
	}
}

func TestAuthService_Login_StoreUnavailable(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = fmt.Errorf("find user: %w: %w", domain.ErrStoreUnavailable, errors.New("connection refused"))
	svc := newAuthSvc(t, repo)

	_, err := svc.Login(context.Background(), "dave", "goodpass", testNow)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("store outage must not look like bad credentials")
	}
}

// ---------------------------------------------------------------------------
// Admin bootstrap
// ---------------------------------------------------------------------------

func TestAuthService_EnsureAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo)

	if err := svc.EnsureAdmin(context.Background(), "admin", "adminpass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "admin", "other"); err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}

	users, _ := svc.ListUsers(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(users))
	}
	if users[0].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", users[0].Role)
	}
	if _, err := svc.Login(context.Background(), "admin", "adminpass", testNow); err != nil {
		t.Fatalf("admin login: %v", err)
	}
}
