package domain

import "time"

const (
	NoteTextMaxLen   = 1000
	NoteListMaxLimit = 100
)

// Note is a short text entry owned by exactly one user.
type Note struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Text        string    `json:"text"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
