package ports

import (
	"context"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// NoteFilter carries the query parameters for listing one owner's notes.
type NoteFilter struct {
	OwnerID string
	Search  string // optional: case-insensitive substring of the note text
	Skip    int
	Limit   int
}

// NoteRepository persists notes. Every lookup is scoped by owner; a note owned
// by someone else is reported as domain.ErrNoteNotFound.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
	FindByID(ctx context.Context, id, ownerID string) (*domain.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id, ownerID string) error
}

// NoteCache caches list results per owner. GetList resolves the page key
// against the owner's current cache generation; SetList must be given that
// same key so a write landing between the two calls orphans the fill.
type NoteCache interface {
	GetList(ctx context.Context, filter NoteFilter) (notes []*domain.Note, page string, ok bool, err error)
	SetList(ctx context.Context, page string, notes []*domain.Note) error
	Invalidate(ctx context.Context, ownerID string) error
}
