package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "task_tracker", cfg.MongoDatabase)
	assert.Equal(t, "task-tracker.db", cfg.SQLitePath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "task-tracker", cfg.JWTIssuer)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, StorageDriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoadConfig_Errors(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrMissingJWTSecret)
	})

	t.Run("development secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("APP_ENV", "development")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.JWTSecret)
	})

	t.Run("zero cache ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CACHE_TTL", "0s")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "CACHE_TTL must be positive")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("STORAGE_DRIVER", "cassandra")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "unknown storage driver")
	})
}

// chdir меняет рабочую директорию на время теста (аналог t.Chdir из Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
