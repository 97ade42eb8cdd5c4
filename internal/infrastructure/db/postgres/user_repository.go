package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

type userRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", r.Username, err)
	}
	return &domain.User{
		ID:           r.ID.String(),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         role,
		CreatedAt:    r.CreatedAt.UTC(),
	}, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := userRow{
		ID:           uuid.New(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role.String(),
		CreatedAt:    user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, storeError("insert user", err)
	}
	return row.toDomain()
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeError("find user", err)
	}
	return row.toDomain()
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at, username").Find(&rows).Error; err != nil {
		return nil, storeError("list users", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
