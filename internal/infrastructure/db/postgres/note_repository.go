package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

type noteRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     string    `gorm:"index:idx_notes_owner_created,priority:1;not null"`
	Text        string    `gorm:"size:1000;not null"`
	IsCompleted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"index:idx_notes_owner_created,priority:2,sort:desc"`
}

func (noteRow) TableName() string { return "notes" }

func (r noteRow) toDomain() *domain.Note {
	return &domain.Note{
		ID:          r.ID.String(),
		OwnerID:     r.OwnerID,
		Text:        r.Text,
		IsCompleted: r.IsCompleted,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	row := noteRow{
		ID:          uuid.New(),
		OwnerID:     note.OwnerID,
		Text:        note.Text,
		IsCompleted: note.IsCompleted,
		CreatedAt:   note.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, storeError("insert note", err)
	}
	return row.toDomain(), nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	noteID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNoteNotFound
	}
	var row noteRow
	err = r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", noteID, ownerID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, storeError("find note", err)
	}
	return row.toDomain(), nil
}

func (r *NoteRepository) List(ctx context.Context, f ports.NoteFilter) ([]*domain.Note, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", f.OwnerID)
	if f.Search != "" {
		q = q.Where("text ILIKE ? ESCAPE '\\'", "%"+escapeLike(f.Search)+"%")
	}
	var rows []noteRow
	err := q.Order("created_at DESC, id DESC").Offset(f.Skip).Limit(f.Limit).Find(&rows).Error
	if err != nil {
		return nil, storeError("list notes", err)
	}
	notes := make([]*domain.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, row.toDomain())
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	noteID, err := uuid.Parse(note.ID)
	if err != nil {
		return domain.ErrNoteNotFound
	}
	res := r.db.WithContext(ctx).Model(&noteRow{}).
		Where("id = ? AND owner_id = ?", noteID, note.OwnerID).
		Updates(map[string]any{"text": note.Text, "is_completed": note.IsCompleted})
	if res.Error != nil {
		return storeError("update note", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	noteID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrNoteNotFound
	}
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", noteID, ownerID).Delete(&noteRow{})
	if res.Error != nil {
		return storeError("delete note", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
