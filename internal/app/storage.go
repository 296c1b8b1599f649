package app

import (
	"context"
	"fmt"

	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/mongo"
	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/postgres"
	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/redis"
	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/sqlite"
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	gormlogger "gorm.io/gorm/logger"
)

// storage - выбранное хранилище и его жизненный цикл.
type storage struct {
	driver   string
	taskRepo usecase.TaskRepository
	userRepo usecase.UserRepository
	ping     func(ctx context.Context) error
	close    func(ctx context.Context) error
}

// cache - кэш списков задач. Без REDIS_ADDR используется заглушка.
type cache interface {
	usecase.CacheRepository
	Ping(ctx context.Context) error
	Close() error
}

func openStorage(ctx context.Context, cfg Config) (*storage, error) {
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &storage{
			driver:   cfg.StorageDriver,
			taskRepo: postgres.NewTaskRepository(pool),
			userRepo: postgres.NewUserRepository(pool),
			ping:     pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case StorageDriverMongo:
		db, err := mongo.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &storage{
			driver:   cfg.StorageDriver,
			taskRepo: mongo.NewTaskRepository(db),
			userRepo: mongo.NewUserRepository(db),
			ping: func(ctx context.Context) error {
				return db.Client().Ping(ctx, nil)
			},
			close: db.Client().Disconnect,
		}, nil

	case StorageDriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		logger.Log.WithField("path", cfg.SQLitePath).Info("Opened SQLite database")
		return &storage{
			driver:   cfg.StorageDriver,
			taskRepo: sqlite.NewTaskRepository(db),
			userRepo: sqlite.NewUserRepository(db),
			ping: func(ctx context.Context) error {
				return sqlite.Ping(ctx, db)
			},
			close: func(context.Context) error {
				return sqlite.Close(db)
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openCache(ctx context.Context, cfg Config) cache {
	if cfg.RedisAddr == "" {
		logger.Log.Info("REDIS_ADDR is empty, task list cache disabled")
		return redis.NopCacheRepository{}
	}

	c := redis.NewCacheRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := c.Ping(ctx); err != nil {
		logger.Log.WithError(err).Warn("Redis is not reachable, cache reads will fall back to storage")
	}
	return c
}
