package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// testDB connects to POSTGRES_TEST_DSN and skips when it is unset or unreachable.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := Connect(context.Background(), Config{DSN: dsn, Timeout: time.Second})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestUserRepository_Postgres(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()
	name := "u" + uuid.NewString()[:12]

	created, err := repo.Create(ctx, &domain.User{Username: name, PasswordHash: "h", Role: domain.RoleAdmin, CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: name, PasswordHash: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	found, err := repo.FindByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, domain.RoleAdmin, found.Role)

	_, err = repo.FindByUsername(ctx, "missing-"+name)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestNoteRepository_Postgres(t *testing.T) {
	repo := NewNoteRepository(testDB(t))
	ctx := context.Background()
	owner := uuid.NewString()

	n, err := repo.Create(ctx, &domain.Note{OwnerID: owner, Text: "100% done_ish", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Note{OwnerID: owner, Text: "1000 things", CreatedAt: time.Now()})
	require.NoError(t, err)

	found, err := repo.List(ctx, ports.NoteFilter{OwnerID: owner, Search: "0%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1, "wildcards in the search term are literal")
	assert.Equal(t, n.ID, found[0].ID)

	_, err = repo.FindByID(ctx, n.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)

	require.NoError(t, repo.Delete(ctx, n.ID, owner))
	assert.ErrorIs(t, repo.Delete(ctx, n.ID, owner), domain.ErrNoteNotFound)
}

func TestErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(dup))
	assert.False(t, errors.Is(storeError("insert", dup), domain.ErrStoreUnavailable))

	dial := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	assert.ErrorIs(t, storeError("find", dial), domain.ErrStoreUnavailable)
	assert.False(t, isUniqueViolation(dial))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
