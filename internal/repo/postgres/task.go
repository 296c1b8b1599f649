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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	queryTimeout = 5 * time.Second
	taskColumns  = `id, user_id, title, description, due_date, status, created_at, updated_at`
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger.Log,
	}
}

func scanTask(row pgx.Row) (entity.Task, error) {
	var (
		task   entity.Task
		status string
	)
	if err := row.Scan(
		&task.ID,
		&task.Owner,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return entity.Task{}, err
	}

	st, err := entity.ParseStatus(status)
	if err != nil {
		return entity.Task{}, err
	}
	task.Status = st
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.ID,
		task.Owner,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status.String(),
		time.Now().UTC(),
	))
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Create",
			"task_id": task.ID.String(),
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return r.get(ctx, "Get", id, query, id)
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, owner uuid.UUID) (entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return r.get(ctx, "GetOwned", id, query, id, owner)
}

func (r *TaskRepository) get(ctx context.Context, method string, id uuid.UUID, query string, args ...any) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithFields(logrus.Fields{
				"method":  method,
				"task_id": id.String(),
			}).Debug("Task not found")
			return entity.Task{}, entity.ErrNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  method,
			"task_id": id.String(),
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) List(ctx context.Context, owner uuid.UUID, filter entity.TaskFilter) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{owner}
	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, filter.Status.String())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "List",
			"owner":  owner.String(),
		}).WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"method": "List",
			}).WithError(err).Error("Failed to scan task row")
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "List",
		}).WithError(err).Error("Error after scanning rows")
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, status = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	updated, err := scanTask(r.db.QueryRow(ctx, query,
		task.ID,
		task.Owner,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status.String(),
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithFields(logrus.Fields{
				"method":  "Update",
				"task_id": task.ID.String(),
			}).Warn("Task not found for update")
			return entity.Task{}, entity.ErrNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": task.ID.String(),
		}).WithError(err).Error("Failed to update task")
		return entity.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, owner uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id.String(),
		}).WithError(err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id.String(),
		}).Warn("Task not found for deletion")
		return entity.ErrNotFound
	}

	return nil
}
