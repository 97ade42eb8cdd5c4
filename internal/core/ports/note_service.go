package ports

import (
	"context"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// UpdateNoteInput carries a partial update. Nil fields are left untouched.
type UpdateNoteInput struct {
	Text        *string
	IsCompleted *bool
}

type NoteService interface {
	Create(ctx context.Context, ownerID, text string) (*domain.Note, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]*domain.Note, error)
	Update(ctx context.Context, ownerID, id string, in UpdateNoteInput) (*domain.Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}
