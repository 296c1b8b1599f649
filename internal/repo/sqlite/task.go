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

type taskModel struct {
	ID          string    `gorm:"primaryKey;type:text"`
	UserID      string    `gorm:"not null;type:text;index:idx_tasks_user_status,priority:1"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	DueDate     time.Time `gorm:"not null"`
	Status      string    `gorm:"not null;type:text;index:idx_tasks_user_status,priority:2"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskModel) TableName() string {
	return "tasks"
}

func (m taskModel) toEntity() (entity.Task, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return entity.Task{}, fmt.Errorf("corrupted task id %q: %w", m.ID, err)
	}
	owner, err := uuid.Parse(m.UserID)
	if err != nil {
		return entity.Task{}, fmt.Errorf("corrupted task owner %q: %w", m.UserID, err)
	}
	status, err := entity.ParseStatus(m.Status)
	if err != nil {
		return entity.Task{}, err
	}
	return entity.Task{
		ID:          id,
		Owner:       owner,
		Title:       m.Title,
		Description: m.Description,
		DueDate:     m.DueDate.UTC(),
		Status:      status,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	m := taskModel{
		ID:          task.ID.String(),
		UserID:      task.Owner.String(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.UTC(),
		Status:      task.Status.String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return m.toEntity()
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (entity.Task, error) {
	return r.first(ctx, "id = ?", id.String())
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, owner uuid.UUID) (entity.Task, error) {
	return r.first(ctx, "id = ? AND user_id = ?", id.String(), owner.String())
}

func (r *TaskRepository) first(ctx context.Context, query string, args ...any) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m taskModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Task{}, entity.ErrNotFound
		}
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return m.toEntity()
}

func (r *TaskRepository) List(ctx context.Context, owner uuid.UUID, filter entity.TaskFilter) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := r.db.WithContext(ctx).Where("user_id = ?", owner.String())
	if filter.Status != nil {
		q = q.Where("status = ?", filter.Status.String())
	}

	var models []taskModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]entity.Task, 0, len(models))
	for _, m := range models {
		task, err := m.toEntity()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var updated entity.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&taskModel{}).
			Where("id = ? AND user_id = ?", task.ID.String(), task.Owner.String()).
			Updates(map[string]any{
				"title":       task.Title,
				"description": task.Description,
				"due_date":    task.DueDate.UTC(),
				"status":      task.Status.String(),
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entity.ErrNotFound
		}

		var m taskModel
		if err := tx.First(&m, "id = ?", task.ID.String()).Error; err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		var err error
		updated, err = m.toEntity()
		return err
	})
	if err != nil {
		return entity.Task{}, err
	}
	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, owner uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id.String(), owner.String()).Delete(&taskModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entity.ErrNotFound
	}
	return nil
}
