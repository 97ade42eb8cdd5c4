package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// UserRepository keeps accounts in a map keyed by username.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return nil, domain.ErrDuplicateIdentity
	}
	u := *user
	u.ID = uuid.NewString()
	r.users[u.Username] = u
	return &u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		out = append(out, &u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
