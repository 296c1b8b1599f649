package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func newTask(owner uuid.UUID, title string, status entity.Status) entity.Task {
	return entity.Task{
		ID:          uuid.New(),
		Owner:       owner,
		Title:       title,
		Description: title + " description",
		DueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      status,
	}
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, newTask(owner, "Buy milk", entity.StatusPending))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.True(t, created.DueDate.Equal(got.DueDate))

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTaskRepository_GetOwned(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, newTask(owner, "Mine", entity.StatusPending))
	require.NoError(t, err)

	_, err = repo.GetOwned(ctx, created.ID, owner)
	require.NoError(t, err)

	_, err = repo.GetOwned(ctx, created.ID, uuid.New())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	owner, other := uuid.New(), uuid.New()

	for _, task := range []entity.Task{
		newTask(owner, "a", entity.StatusPending),
		newTask(owner, "b", entity.StatusCompleted),
		newTask(owner, "c", entity.StatusCompleted),
		newTask(other, "d", entity.StatusCompleted),
	} {
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, owner, entity.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed := entity.StatusCompleted
	filtered, err := repo.List(ctx, owner, entity.TaskFilter{Status: &completed})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	for _, task := range filtered {
		assert.Equal(t, entity.StatusCompleted, task.Status)
		assert.Equal(t, owner, task.Owner)
	}

	inProgress := entity.StatusInProgress
	none, err := repo.List(ctx, owner, entity.TaskFilter{Status: &inProgress})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaskRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, newTask(owner, "Old", entity.StatusPending))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	changes := created
	changes.Title = "New"
	changes.Status = entity.StatusInProgress
	updated, err := repo.Update(ctx, changes)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, entity.StatusInProgress, updated.Status)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	foreign := changes
	foreign.Owner = uuid.New()
	_, err = repo.Update(ctx, foreign)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, "New", got.Title)
}

func TestTaskRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(setupTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, newTask(owner, "Gone", entity.StatusPending))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID, uuid.New()), entity.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, created.ID, owner))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID, owner), entity.ErrNotFound)

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))

	user := entity.User{
		ID:           uuid.New(),
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	}
	created, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	user.ID = uuid.New()
	_, err = repo.Create(ctx, user)
	assert.ErrorIs(t, err, entity.ErrDuplicate)

	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
