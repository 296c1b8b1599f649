package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	owner := uuid.MustParse("7f1c2c4e-8d5b-4a53-9c3e-2d7f5c1a9b10")
	assert.Equal(t, "tasks:7f1c2c4e-8d5b-4a53-9c3e-2d7f5c1a9b10", cacheKey(owner))
	assert.Equal(t, "tasks:7f1c2c4e-8d5b-4a53-9c3e-2d7f5c1a9b10:v", versionKey(owner))
}

func TestNopCacheRepository(t *testing.T) {
	ctx := context.Background()
	var c NopCacheRepository

	version, err := c.Version(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, c.SetTasks(ctx, uuid.New(), version, []entity.Task{{Title: "x"}}, time.Minute))
	tasks, found, err := c.GetTasks(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, tasks)
	assert.NoError(t, c.Invalidate(ctx, uuid.New()))
}

func setupTestCache(t *testing.T) *CacheRepository {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	c := NewCacheRepository(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestCacheRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupTestCache(t)

	owner := uuid.New()
	tasks := []entity.Task{{
		ID:      uuid.New(),
		Owner:   owner,
		Title:   "Buy milk",
		DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:  entity.StatusPending,
	}}

	_, found, err := c.GetTasks(ctx, owner)
	require.NoError(t, err)
	assert.False(t, found)

	version, err := c.Version(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, c.SetTasks(ctx, owner, version, tasks, time.Minute))
	got, found, err := c.GetTasks(ctx, owner)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, tasks[0].ID, got[0].ID)
	assert.Equal(t, entity.StatusPending, got[0].Status)

	require.NoError(t, c.Invalidate(ctx, owner))
	_, found, err = c.GetTasks(ctx, owner)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheRepository_SetTasksSkipsStaleVersion(t *testing.T) {
	ctx := context.Background()
	c := setupTestCache(t)
	owner := uuid.New()

	before, err := c.Version(ctx, owner)
	require.NoError(t, err)

	// запись задачи завершилась между чтением поколения и сохранением списка
	require.NoError(t, c.Invalidate(ctx, owner))

	after, err := c.Version(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	require.NoError(t, c.SetTasks(ctx, owner, before, []entity.Task{}, time.Minute))
	_, found, err := c.GetTasks(ctx, owner)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetTasks(ctx, owner, after, []entity.Task{}, time.Minute))
	_, found, err = c.GetTasks(ctx, owner)
	require.NoError(t, err)
	assert.True(t, found)
}
