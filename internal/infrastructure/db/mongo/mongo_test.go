package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// testDB connects to MONGO_TEST_URI (default mongodb://localhost:27017) and
// skips when no server answers. Each test gets a throwaway database.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, db, err := Connect(context.Background(), Config{
		URI:      uri,
		Database: "gateway_test_" + uuid.NewString()[:8],
		Timeout:  time.Second,
	})
	if err != nil {
		t.Skipf("mongo not available at %s: %v", uri, err)
	}
	require.NoError(t, EnsureIndexes(context.Background(), db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h", Role: domain.RoleUser, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h2", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, domain.RoleUser, found.Role)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestNoteRepository_OwnerScopedCRUD(t *testing.T) {
	repo := NewNoteRepository(testDB(t))
	ctx := context.Background()

	n, err := repo.Create(ctx, &domain.Note{OwnerID: "u1", Text: "Buy milk", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Note{OwnerID: "u1", Text: "call bob", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, n.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)
	_, err = repo.FindByID(ctx, "not-an-object-id", "u1")
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)

	found, err := repo.List(ctx, ports.NoteFilter{OwnerID: "u1", Search: "MILK", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, n.ID, found[0].ID)

	n.IsCompleted = true
	require.NoError(t, repo.Update(ctx, n))
	got, err := repo.FindByID(ctx, n.ID, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	assert.ErrorIs(t, repo.Delete(ctx, n.ID, "u2"), domain.ErrNoteNotFound)
	require.NoError(t, repo.Delete(ctx, n.ID, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, n.ID, "u1"), domain.ErrNoteNotFound)
}

func TestStoreError(t *testing.T) {
	err := storeError("find user", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	err = storeError("find user", errors.New("bad document"))
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))
}
