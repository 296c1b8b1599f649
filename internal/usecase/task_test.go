package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/sqlite"
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

type memoryCache struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID][]entity.Task
	versions    map[uuid.UUID]int64
	hits        int
	invalidated int
	getErr      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		tasks:    make(map[uuid.UUID][]entity.Task),
		versions: make(map[uuid.UUID]int64),
	}
}

func (c *memoryCache) Version(_ context.Context, owner uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[owner], nil
}

func (c *memoryCache) SetTasks(_ context.Context, owner uuid.UUID, version int64, tasks []entity.Task, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[owner] != version {
		return nil
	}
	c.tasks[owner] = tasks
	return nil
}

func (c *memoryCache) GetTasks(_ context.Context, owner uuid.UUID) ([]entity.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	tasks, ok := c.tasks[owner]
	if ok {
		c.hits++
	}
	return tasks, ok, nil
}

func (c *memoryCache) Invalidate(_ context.Context, owner uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[owner]++
	delete(c.tasks, owner)
	c.invalidated++
	return nil
}

// racingTaskRepository выполняет afterList сразу после чтения списка из хранилища.
type racingTaskRepository struct {
	usecase.TaskRepository
	afterList func()
}

func (r *racingTaskRepository) List(ctx context.Context, owner uuid.UUID, filter entity.TaskFilter) ([]entity.Task, error) {
	tasks, err := r.TaskRepository.List(ctx, owner, filter)
	if r.afterList != nil {
		hook := r.afterList
		r.afterList = nil
		hook()
	}
	return tasks, err
}

func setupTaskUseCase(t *testing.T) (*usecase.TaskUseCaseImpl, *memoryCache) {
	t.Helper()

	db, err := sqlite.Open(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })

	cache := newMemoryCache()
	return usecase.NewTaskUseCase(sqlite.NewTaskRepository(db), cache, time.Minute), cache
}

func validInput() usecase.TaskInput {
	return usecase.TaskInput{
		Title:       "Buy milk",
		Description: "2%",
		DueDate:     "2024-01-01T00:00:00Z",
	}
}

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, msg, usecase.Message(err))
}

func TestTaskUseCase_Create(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	task, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, owner, task.Owner)
	assert.Equal(t, entity.StatusPending, task.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), task.DueDate)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	in := validInput()
	in.Status = "Completed"
	in.DueDate = "2024-02-03"
	task, err = uc.Create(ctx, owner, in)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, task.Status)
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), task.DueDate)
}

func TestTaskUseCase_CreateValidation(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	tests := []struct {
		name   string
		modify func(in *usecase.TaskInput)
		msg    string
	}{
		{"missing title", func(in *usecase.TaskInput) { in.Title = "" }, "Title, description, and due date are required"},
		{"blank description", func(in *usecase.TaskInput) { in.Description = "   " }, "Title, description, and due date are required"},
		{"missing due date", func(in *usecase.TaskInput) { in.DueDate = "" }, "Title, description, and due date are required"},
		{"bad due date", func(in *usecase.TaskInput) { in.DueDate = "tomorrow" }, "Due date is not valid"},
		{"unknown status", func(in *usecase.TaskInput) { in.Status = "Done" }, "Status must be one of: Pending, In Progress, Completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			_, err := uc.Create(ctx, owner, in)
			assertKind(t, err, usecase.ErrValidation, tt.msg)
		})
	}

	tasks, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskUseCase_ListIsolation(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	alice, bob := uuid.New(), uuid.New()

	empty, err := uc.List(ctx, alice)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = uc.Create(ctx, alice, validInput())
	require.NoError(t, err)
	_, err = uc.Create(ctx, alice, validInput())
	require.NoError(t, err)
	_, err = uc.Create(ctx, bob, validInput())
	require.NoError(t, err)

	tasks, err := uc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, alice, task.Owner)
	}
}

func TestTaskUseCase_ListUsesCache(t *testing.T) {
	ctx := context.Background()
	uc, cache := setupTaskUseCase(t)
	owner := uuid.New()

	_, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	first, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	second, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)

	_, err = uc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	third, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 1, cache.hits)
}

func TestTaskUseCase_ListCacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	uc, cache := setupTaskUseCase(t)
	owner := uuid.New()

	_, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	cache.getErr = errors.New("connection refused")
	tasks, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskUseCase_ListDoesNotCacheStaleSnapshot(t *testing.T) {
	ctx := context.Background()

	db, err := sqlite.Open(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })

	repo := &racingTaskRepository{TaskRepository: sqlite.NewTaskRepository(db)}
	uc := usecase.NewTaskUseCase(repo, newMemoryCache(), time.Minute)
	owner := uuid.New()

	repo.afterList = func() {
		_, err := uc.Create(ctx, owner, validInput())
		require.NoError(t, err)
	}

	stale, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, stale)

	tasks, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskUseCase_ListFiltered(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	for _, status := range []string{"Pending", "Completed", "Completed", "In Progress"} {
		in := validInput()
		in.Status = status
		_, err := uc.Create(ctx, owner, in)
		require.NoError(t, err)
	}
	in := validInput()
	in.Status = "Completed"
	_, err := uc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)

	completed, err := uc.ListFiltered(ctx, owner, "Completed")
	require.NoError(t, err)
	assert.Len(t, completed, 2)
	for _, task := range completed {
		assert.Equal(t, entity.StatusCompleted, task.Status)
		assert.Equal(t, owner, task.Owner)
	}

	inProgress, err := uc.ListFiltered(ctx, owner, "In Progress")
	require.NoError(t, err)
	assert.Len(t, inProgress, 1)

	_, err = uc.ListFiltered(ctx, owner, "")
	assertKind(t, err, usecase.ErrValidation, "Status query parameter is required")

	_, err = uc.ListFiltered(ctx, owner, "Archived")
	assertKind(t, err, usecase.ErrValidation, "Status must be one of: Pending, In Progress, Completed")
}

func TestTaskUseCase_ListFilteredEmpty(t *testing.T) {
	uc, _ := setupTaskUseCase(t)

	tasks, err := uc.ListFiltered(context.Background(), uuid.New(), "Pending")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskUseCase_Get(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	created, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	got, err := uc.Get(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2%", got.Description)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.Equal(t, entity.StatusPending, got.Status)

	_, err = uc.Get(ctx, owner, "not-a-uuid")
	assertKind(t, err, usecase.ErrValidation, "Task id not valid")

	_, err = uc.Get(ctx, owner, uuid.NewString())
	assertKind(t, err, usecase.ErrTaskNotFound, "No task found..")

	_, err = uc.Get(ctx, uuid.New(), created.ID.String())
	assertKind(t, err, usecase.ErrTaskNotFound, "No task found..")
}

func TestTaskUseCase_Update(t *testing.T) {
	ctx := context.Background()
	uc, cache := setupTaskUseCase(t)
	owner := uuid.New()

	created, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	_, err = uc.List(ctx, owner)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := uc.Update(ctx, owner, created.ID.String(), usecase.TaskInput{
		Title:       " Buy bread ",
		Description: "rye",
		DueDate:     "2024-03-01",
		Status:      "In Progress",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, owner, updated.Owner)
	assert.Equal(t, "Buy bread", updated.Title)
	assert.Equal(t, entity.StatusInProgress, updated.Status)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, 2, cache.invalidated)

	tasks, err := uc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy bread", tasks[0].Title)
}

func TestTaskUseCase_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	created, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	full := validInput()
	full.Status = "Completed"

	_, err = uc.Update(ctx, owner, created.ID.String(), validInput())
	assertKind(t, err, usecase.ErrValidation, "Title, description, due date, and status are required")

	// поля проверяются раньше id
	_, err = uc.Update(ctx, owner, "bad-id", usecase.TaskInput{})
	assertKind(t, err, usecase.ErrValidation, "Title, description, due date, and status are required")

	_, err = uc.Update(ctx, owner, "bad-id", full)
	assertKind(t, err, usecase.ErrValidation, "Task id not valid")

	_, err = uc.Update(ctx, owner, uuid.NewString(), full)
	assertKind(t, err, usecase.ErrTaskNotFound, "Task with given id not found")

	_, err = uc.Update(ctx, uuid.New(), created.ID.String(), full)
	assertKind(t, err, usecase.ErrForbidden, "You can't update task of another user")

	got, err := uc.Get(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
}

func TestTaskUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	uc, _ := setupTaskUseCase(t)
	owner := uuid.New()

	created, err := uc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	err = uc.Delete(ctx, owner, "bad-id")
	assertKind(t, err, usecase.ErrValidation, "Task id not valid")

	err = uc.Delete(ctx, uuid.New(), created.ID.String())
	assertKind(t, err, usecase.ErrForbidden, "You can't delete task of another user")

	require.NoError(t, uc.Delete(ctx, owner, created.ID.String()))

	_, err = uc.Get(ctx, owner, created.ID.String())
	assertKind(t, err, usecase.ErrTaskNotFound, "No task found..")

	err = uc.Delete(ctx, owner, created.ID.String())
	assertKind(t, err, usecase.ErrTaskNotFound, "Task with given id not found")

	tasks, err := uc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
