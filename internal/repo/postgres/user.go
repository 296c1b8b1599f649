package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	userColumns       = `id, name, email, password_hash, created_at, updated_at`
	uniqueViolationPG = "23505"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Log,
	}
}

func scanUser(row pgx.Row) (entity.User, error) {
	var user entity.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return entity.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user entity.User) (entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		time.Now().UTC(),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationPG {
			return entity.User{}, entity.ErrDuplicate
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Create",
			"user_id": user.ID.String(),
		}).WithError(err).Error("Failed to create user")
		return entity.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return r.get(ctx, "Get", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.get(ctx, "GetByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) get(ctx context.Context, method, query string, arg any) (entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, entity.ErrNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method": method,
		}).WithError(err).Error("Failed to get user")
		return entity.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
