package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	msgTaskIDNotValid       = "Task id not valid"
	msgCreateFieldsRequired = "Title, description, and due date are required"
	msgUpdateFieldsRequired = "Title, description, due date, and status are required"
	msgStatusRequired       = "Status query parameter is required"
)

var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// TaskInput - данные задачи в том виде, в котором их прислал клиент.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

type TaskUseCase interface {
	List(ctx context.Context, owner uuid.UUID) ([]entity.Task, error)
	ListFiltered(ctx context.Context, owner uuid.UUID, status string) ([]entity.Task, error)
	Get(ctx context.Context, owner uuid.UUID, id string) (entity.Task, error)
	Create(ctx context.Context, owner uuid.UUID, in TaskInput) (entity.Task, error)
	Update(ctx context.Context, owner uuid.UUID, id string, in TaskInput) (entity.Task, error)
	Delete(ctx context.Context, owner uuid.UUID, id string) error
}

type TaskUseCaseImpl struct {
	taskRepo  TaskRepository
	cacheRepo CacheRepository
	cacheTTL  time.Duration
}

func NewTaskUseCase(taskRepo TaskRepository, cacheRepo CacheRepository, cacheTTL time.Duration) *TaskUseCaseImpl {
	return &TaskUseCaseImpl{
		taskRepo:  taskRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
	}
}

func (uc *TaskUseCaseImpl) List(ctx context.Context, owner uuid.UUID) ([]entity.Task, error) {
	log := logger.Log.WithField("owner", owner.String())

	tasks, found, err := uc.cacheRepo.GetTasks(ctx, owner)
	if err != nil {
		log.WithError(err).Warn("Failed to read tasks from cache")
	}
	if found {
		log.Debug("Tasks retrieved from cache")
		return tasks, nil
	}

	// Поколение читается до запроса к хранилищу: запись, прошедшая между ними, сдвинет его.
	version, versionErr := uc.cacheRepo.Version(ctx, owner)
	if versionErr != nil {
		log.WithError(versionErr).Warn("Failed to read cache version")
	}

	tasks, err = uc.taskRepo.List(ctx, owner, entity.TaskFilter{})
	if err != nil {
		log.WithError(err).Error("Failed to list tasks from repository")
		return nil, internalError(err)
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}

	if versionErr == nil {
		if err := uc.cacheRepo.SetTasks(ctx, owner, version, tasks, uc.cacheTTL); err != nil {
			log.WithError(err).Warn("Failed to set tasks in cache")
		}
	}

	log.WithField("count", len(tasks)).Info("Tasks listed successfully")
	return tasks, nil
}

func (uc *TaskUseCaseImpl) ListFiltered(ctx context.Context, owner uuid.UUID, status string) ([]entity.Task, error) {
	if status == "" {
		return nil, validationError(msgStatusRequired)
	}
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	tasks, err := uc.taskRepo.List(ctx, owner, entity.TaskFilter{Status: &st})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"owner":  owner.String(),
			"status": status,
		}).WithError(err).Error("Failed to list filtered tasks")
		return nil, internalError(err)
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}
	return tasks, nil
}

func (uc *TaskUseCaseImpl) Get(ctx context.Context, owner uuid.UUID, id string) (entity.Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return entity.Task{}, validationError(msgTaskIDNotValid)
	}

	task, err := uc.taskRepo.GetOwned(ctx, taskID, owner)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Task{}, notFoundError(ErrTaskNotFound, "No task found..")
		}
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to get task from repository")
		return entity.Task{}, internalError(err)
	}
	return task, nil
}

func (uc *TaskUseCaseImpl) Create(ctx context.Context, owner uuid.UUID, in TaskInput) (entity.Task, error) {
	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if title == "" || description == "" || strings.TrimSpace(in.DueDate) == "" {
		return entity.Task{}, validationError(msgCreateFieldsRequired)
	}

	dueDate, err := parseDueDate(in.DueDate)
	if err != nil {
		return entity.Task{}, err
	}

	status := entity.StatusPending
	if in.Status != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return entity.Task{}, err
		}
	}

	task := entity.Task{
		ID:          uuid.New(),
		Owner:       owner,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Status:      status,
	}

	created, err := uc.taskRepo.Create(ctx, task)
	if err != nil {
		logger.Log.WithField("owner", owner.String()).WithError(err).Error("Failed to create task")
		return entity.Task{}, internalError(err)
	}

	uc.invalidate(ctx, owner)

	logger.Log.WithField("task_id", created.ID.String()).Info("Task created successfully")
	return created, nil
}

func (uc *TaskUseCaseImpl) Update(ctx context.Context, owner uuid.UUID, id string, in TaskInput) (entity.Task, error) {
	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if title == "" || description == "" || strings.TrimSpace(in.DueDate) == "" || in.Status == "" {
		return entity.Task{}, validationError(msgUpdateFieldsRequired)
	}

	dueDate, err := parseDueDate(in.DueDate)
	if err != nil {
		return entity.Task{}, err
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return entity.Task{}, err
	}

	taskID, err := uc.checkOwnership(ctx, owner, id, "You can't update task of another user")
	if err != nil {
		return entity.Task{}, err
	}

	updated, err := uc.taskRepo.Update(ctx, entity.Task{
		ID:          taskID,
		Owner:       owner,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Status:      status,
	})
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Task{}, notFoundError(ErrTaskNotFound, "Task with given id not found")
		}
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to update task in repository")
		return entity.Task{}, internalError(err)
	}

	uc.invalidate(ctx, owner)

	logger.Log.WithField("task_id", id).Info("Task updated successfully")
	return updated, nil
}

func (uc *TaskUseCaseImpl) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	taskID, err := uc.checkOwnership(ctx, owner, id, "You can't delete task of another user")
	if err != nil {
		return err
	}

	if err := uc.taskRepo.Delete(ctx, taskID, owner); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return notFoundError(ErrTaskNotFound, "Task with given id not found")
		}
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to delete task from repository")
		return internalError(err)
	}

	uc.invalidate(ctx, owner)

	logger.Log.WithField("task_id", id).Info("Task deleted successfully")
	return nil
}

// checkOwnership проверяет формат id, существование задачи и владельца.
// Существование проверяется по всему хранилищу, поэтому чужая задача дает ErrForbidden.
func (uc *TaskUseCaseImpl) checkOwnership(ctx context.Context, owner uuid.UUID, id, forbiddenMsg string) (uuid.UUID, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, validationError(msgTaskIDNotValid)
	}

	task, err := uc.taskRepo.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return uuid.Nil, notFoundError(ErrTaskNotFound, "Task with given id not found")
		}
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to get task from repository")
		return uuid.Nil, internalError(err)
	}

	if !task.OwnedBy(owner) {
		logger.Log.WithFields(logrus.Fields{
			"task_id": id,
			"owner":   owner.String(),
		}).Warn("Task access denied")
		return uuid.Nil, forbiddenError(forbiddenMsg)
	}
	return taskID, nil
}

func (uc *TaskUseCaseImpl) invalidate(ctx context.Context, owner uuid.UUID) {
	if err := uc.cacheRepo.Invalidate(ctx, owner); err != nil {
		logger.Log.WithField("owner", owner.String()).WithError(err).Error("Failed to invalidate cache")
	}
}

func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validationError("Due date is not valid")
}

func parseStatus(s string) (entity.Status, error) {
	st, err := entity.ParseStatus(s)
	if err != nil {
		return entity.StatusUnset, validationError("Status must be one of: Pending, In Progress, Completed")
	}
	return st, nil
}

type TaskRepository interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	// Get ищет задачу по id без учета владельца.
	Get(ctx context.Context, id uuid.UUID) (entity.Task, error)
	GetOwned(ctx context.Context, id, owner uuid.UUID) (entity.Task, error)
	List(ctx context.Context, owner uuid.UUID, filter entity.TaskFilter) ([]entity.Task, error)
	// Update меняет изменяемые поля задачи с совпадающими ID и Owner.
	Update(ctx context.Context, task entity.Task) (entity.Task, error)
	Delete(ctx context.Context, id, owner uuid.UUID) error
}

type CacheRepository interface {
	// Version возвращает поколение списка владельца, которое сдвигает Invalidate.
	Version(ctx context.Context, owner uuid.UUID) (int64, error)
	// SetTasks ничего не пишет, если поколение уже не равно version.
	SetTasks(ctx context.Context, owner uuid.UUID, version int64, tasks []entity.Task, ttl time.Duration) error
	GetTasks(ctx context.Context, owner uuid.UUID) ([]entity.Task, bool, error)
	Invalidate(ctx context.Context, owner uuid.UUID) error
}
