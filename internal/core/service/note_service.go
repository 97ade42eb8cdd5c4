package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

type NoteService struct {
	repo  ports.NoteRepository
	cache ports.NoteCache
	log   zerolog.Logger
}

// NewNoteService returns a NoteService. cache may be nil, in which case every
// list goes to the repository.
func NewNoteService(repo ports.NoteRepository, cache ports.NoteCache, log zerolog.Logger) *NoteService {
	return &NoteService{repo: repo, cache: cache, log: log}
}

func (s *NoteService) Create(ctx context.Context, ownerID, text string) (*domain.Note, error) {
	note, err := s.repo.Create(ctx, &domain.Note{
		OwnerID:   ownerID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// List returns one page of the owner's notes, newest first. Limit is clamped to
// [1, domain.NoteListMaxLimit].
func (s *NoteService) List(ctx context.Context, filter ports.NoteFilter) ([]*domain.Note, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Limit <= 0 || filter.Limit > domain.NoteListMaxLimit {
		filter.Limit = domain.NoteListMaxLimit
	}

	// page is resolved before the repository read; a write in between bumps
	// the owner's version and the fill below lands on an orphaned key.
	var page string
	if s.cache != nil {
		notes, key, ok, err := s.cache.GetList(ctx, filter)
		page = key
		switch {
		case err != nil:
			metrics.NotesCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("owner", filter.OwnerID).Msg("note cache read failed")
		case ok:
			metrics.NotesCacheTotal.WithLabelValues("hit").Inc()
			return notes, nil
		default:
			metrics.NotesCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	notes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	if page != "" {
		if err := s.cache.SetList(ctx, page, notes); err != nil {
			s.log.Warn().Err(err).Str("owner", filter.OwnerID).Msg("note cache write failed")
		}
	}
	return notes, nil
}

func (s *NoteService) Update(ctx context.Context, ownerID, id string, in ports.UpdateNoteInput) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if in.Text != nil {
		note.Text = *in.Text
	}
	if in.IsCompleted != nil {
		note.IsCompleted = *in.IsCompleted
	}
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *NoteService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Str("owner", ownerID).Msg("note cache invalidation failed")
	}
}
