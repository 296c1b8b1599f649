package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect создает пул соединений и проверяет доступность базы.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Connected to database successfully")
	return pool, nil
}
