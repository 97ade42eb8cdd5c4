package handler

import "time"

type createNoteRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// updateNoteRequest is a partial update; absent fields are left unchanged.
type updateNoteRequest struct {
	Text        *string `json:"text"         validate:"omitempty,min=1,max=1000"`
	IsCompleted *bool   `json:"is_completed"`
}

type listNotesQuery struct {
	Search string `query:"search"`
	Skip   int    `query:"skip"   validate:"min=0"`
	Limit  int    `query:"limit"  validate:"min=0,max=100"`
}

type noteResponse struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
