package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// NoteRepository keeps notes in a map keyed by id. Lookups are owner-scoped.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]domain.Note
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]domain.Note)}
}

func (r *NoteRepository) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	n := *note
	n.ID = uuid.NewString()

	r.mu.Lock()
	r.notes[n.ID] = n
	r.mu.Unlock()
	return &n, nil
}

func (r *NoteRepository) FindByID(_ context.Context, id, ownerID string) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, domain.ErrNoteNotFound
	}
	return &n, nil
}

// List returns the owner's notes newest first.
func (r *NoteRepository) List(_ context.Context, f ports.NoteFilter) ([]*domain.Note, error) {
	search := strings.ToLower(f.Search)

	r.mu.RLock()
	matched := make([]*domain.Note, 0)
	for _, n := range r.notes {
		if n.OwnerID != f.OwnerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(n.Text), search) {
			continue
		}
		n := n
		matched = append(matched, &n)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if f.Skip >= len(matched) {
		return []*domain.Note{}, nil
	}
	matched = matched[f.Skip:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *NoteRepository) Update(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[note.ID]
	if !ok || n.OwnerID != note.OwnerID {
		return domain.ErrNoteNotFound
	}
	n.Text = note.Text
	n.IsCompleted = note.IsCompleted
	r.notes[n.ID] = n
	return nil
}

func (r *NoteRepository) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.OwnerID != ownerID {
		return domain.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}
