package handler

import (
	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:          n.ID,
		Text:        n.Text,
		IsCompleted: n.IsCompleted,
		CreatedAt:   n.CreatedAt,
	}
}

func toNoteResponses(notes []*domain.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}

func toNoteFilter(ownerID string, q listNotesQuery) ports.NoteFilter {
	return ports.NoteFilter{
		OwnerID: ownerID,
		Search:  q.Search,
		Skip:    q.Skip,
		Limit:   q.Limit,
	}
}

func toUpdateInput(r updateNoteRequest) ports.UpdateNoteInput {
	return ports.UpdateNoteInput{Text: r.Text, IsCompleted: r.IsCompleted}
}
