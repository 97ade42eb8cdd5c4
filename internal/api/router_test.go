package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/service"
	"github.com/99minutos/auth-gateway/internal/infrastructure/db/memory"
	"github.com/99minutos/auth-gateway/internal/infrastructure/security"
)

type discardQueue struct{}

func (discardQueue) Enqueue(domain.EmailTask) error { return nil }

type gateway struct {
	http.Handler
	auth  *service.AuthService
	clock time.Time
}

func newGateway(t *testing.T, maxRequests int64) *gateway {
	t.Helper()
	log := zerolog.Nop()
	users := memory.NewUserRepository()

	tokens, err := security.NewJWTService(security.TokenConfig{Secret: []byte("router-test-secret"), TTL: 30 * time.Minute})
	require.NoError(t, err)

	g := &gateway{clock: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	g.auth = service.NewAuthService(users, security.NewBcryptHasher(bcrypt.MinCost), tokens, log)
	limiter := service.NewFixedWindowLimiter(memory.NewRateCounter(), service.RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      time.Minute,
	}, log)

	g.Handler = NewRouter(Dependencies{
		Log:        log,
		Auth:       g.auth,
		Guard:      service.NewAuthorizationGuard(tokens, users),
		Limiter:    limiter,
		Notes:      service.NewNoteService(memory.NewNoteRepository(), nil, log),
		Tasks:      discardQueue{},
		Hub:        service.NewConnectionRegistry(time.Second, log),
		Registerer: prometheus.NewRegistry(),
		Now:        func() time.Time { return g.clock },
	})
	return g
}

func (g *gateway) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func (g *gateway) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := g.do(t, http.MethodPost, "/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bearer", body.TokenType)
	return body.AccessToken
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	g := newGateway(t, 100)

	rec := g.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "alice", created["username"])
	assert.Equal(t, "user", created["role"])
	assert.NotEmpty(t, created["id"])

	rec = g.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"anything1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = g.do(t, http.MethodPost, "/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	token := g.login(t, "alice", "secret123")

	rec = g.do(t, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "user", me["role"])

	rec = g.do(t, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminRoleGate(t *testing.T) {
	g := newGateway(t, 100)
	require.NoError(t, g.auth.EnsureAdmin(context.Background(), "root", "rootpass123"))
	require.Equal(t, http.StatusCreated, g.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret123"}`).Code)

	adminToken := g.login(t, "root", "rootpass123")
	userToken := g.login(t, "alice", "secret123")

	rec := g.do(t, http.MethodGet, "/admin/users", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	assert.Equal(t, http.StatusForbidden, g.do(t, http.MethodGet, "/admin/users", userToken, "").Code)
	assert.Equal(t, http.StatusUnauthorized, g.do(t, http.MethodGet, "/admin/users", "", "").Code)
}

func TestRouter_TokenExpiry(t *testing.T) {
	g := newGateway(t, 100)
	require.Equal(t, http.StatusCreated, g.do(t, http.MethodPost, "/register", "", `{"username":"alice","password":"secret123"}`).Code)
	token := g.login(t, "alice", "secret123")

	g.clock = g.clock.Add(30*time.Minute - time.Second)
	assert.Equal(t, http.StatusOK, g.do(t, http.MethodGet, "/users/me", token, "").Code)

	g.clock = g.clock.Add(2 * time.Second)
	assert.Equal(t, http.StatusUnauthorized, g.do(t, http.MethodGet, "/users/me", token, "").Code)
}

func TestRouter_RateLimitAppliesToEveryRoute(t *testing.T) {
	g := newGateway(t, 5)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, g.do(t, http.MethodGet, "/health", "", "").Code, "request %d", i+1)
	}

	rec := g.do(t, http.MethodPost, "/login", "", `{"username":"alice","password":"secret123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	g.clock = g.clock.Add(time.Minute)
	assert.Equal(t, http.StatusOK, g.do(t, http.MethodGet, "/health", "", "").Code)
}

func TestRouter_NotesAreOwnerScoped(t *testing.T) {
	g := newGateway(t, 100)
	for _, name := range []string{"alice", "bob"} {
		require.Equal(t, http.StatusCreated, g.do(t, http.MethodPost, "/register", "", `{"username":"`+name+`","password":"secret123"}`).Code)
	}
	alice := g.login(t, "alice", "secret123")
	bob := g.login(t, "bob", "secret123")

	rec := g.do(t, http.MethodPost, "/notes", alice, `{"text":"buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var note map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	id, _ := note["id"].(string)
	require.NotEmpty(t, id)

	assert.Equal(t, http.StatusOK, g.do(t, http.MethodGet, "/notes/"+id, alice, "").Code)
	assert.Equal(t, http.StatusNotFound, g.do(t, http.MethodGet, "/notes/"+id, bob, "").Code)

	rec = g.do(t, http.MethodGet, "/notes?search=MILK", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, g.do(t, http.MethodDelete, "/notes/"+id, alice, "").Code)
	assert.Equal(t, http.StatusNotFound, g.do(t, http.MethodGet, "/notes/"+id, alice, "").Code)
}
