package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userModel struct {
	ID           string `gorm:"primaryKey;type:text"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toEntity() (entity.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return entity.User{}, fmt.Errorf("corrupted user id %q: %w", m.ID, err)
	}
	return entity.User{
		ID:           id,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user entity.User) (entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	m := userModel{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entity.User{}, entity.ErrDuplicate
		}
		return entity.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return m.toEntity()
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return r.first(ctx, "id = ?", id.String())
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...any) (entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m userModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, entity.ErrNotFound
		}
		return entity.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return m.toEntity()
}
