package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tasks:"

var errStaleVersion = errors.New("cache version changed")

type CacheRepository struct {
	client *redis.Client
}

func NewCacheRepository(addr, password string, db int) *CacheRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &CacheRepository{client: client}
}

func cacheKey(owner uuid.UUID) string {
	return keyPrefix + owner.String()
}

func versionKey(owner uuid.UUID) string {
	return keyPrefix + owner.String() + ":v"
}

// Version возвращает номер поколения списка владельца. Отсутствующий ключ дает 0.
func (c *CacheRepository) Version(ctx context.Context, owner uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(owner)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetTasks кладет список, только если с момента чтения version не было Invalidate.
func (c *CacheRepository) SetTasks(ctx context.Context, owner uuid.UUID, version int64, tasks []entity.Task, ttl time.Duration) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(owner)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(owner), data, ttl)
			return nil
		})
		return err
	}, versionKey(owner))

	if errors.Is(err, errStaleVersion) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// GetTasks возвращает found=false, если в кэше нет списка владельца.
func (c *CacheRepository) GetTasks(ctx context.Context, owner uuid.UUID) ([]entity.Task, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	var tasks []entity.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return tasks, true, nil
}

// Invalidate сдвигает поколение и удаляет список.
func (c *CacheRepository) Invalidate(ctx context.Context, owner uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(owner))
		pipe.Del(ctx, cacheKey(owner))
		return nil
	})
	return err
}

// Ping проверяет подключение к Redis
func (c *CacheRepository) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CacheRepository) Close() error {
	return c.client.Close()
}

// NopCacheRepository используется, когда Redis не настроен.
type NopCacheRepository struct{}

func (NopCacheRepository) Version(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (NopCacheRepository) SetTasks(context.Context, uuid.UUID, int64, []entity.Task, time.Duration) error {
	return nil
}

func (NopCacheRepository) GetTasks(context.Context, uuid.UUID) ([]entity.Task, bool, error) {
	return nil, false, nil
}

func (NopCacheRepository) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

func (NopCacheRepository) Ping(context.Context) error {
	return nil
}

func (NopCacheRepository) Close() error {
	return nil
}
