package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/auth"
	"github.com/KarpovAlexandrGo/task-tracker/internal/metrics"
	"github.com/KarpovAlexandrGo/task-tracker/internal/repo/redis"
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, checks map[string]func(context.Context) error) http.Handler {
	t.Helper()

	store, err := openStorage(context.Background(), Config{
		StorageDriver: StorageDriverSQLite,
		SQLitePath:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.close(context.Background()) })

	tokens := auth.NewTokenManager(auth.TokenConfig{Secret: "secret", TTL: time.Hour, Issuer: "test"})
	if checks == nil {
		checks = map[string]func(context.Context) error{
			"storage": store.ping,
			"cache":   redis.NopCacheRepository{}.Ping,
		}
	}

	return setupRouter(routerDeps{
		taskUseCase: usecase.NewTaskUseCase(store.taskRepo, redis.NopCacheRepository{}, time.Minute),
		authUseCase: usecase.NewAuthUseCase(store.userRepo, auth.NewPasswordHasher(bcrypt.MinCost), tokens),
		tokens:      tokens,
		metrics:     metrics.New(prometheus.NewRegistry()),
		checks:      checks,
	})
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestRouter_OpsEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	code, _ := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)

	code, body := get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	code, _ = get(t, h, "/api/tasks")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "task_tracker_http_requests_total")
	assert.Contains(t, body, `code="401"`)
	assert.NotContains(t, body, `route="unmatched"`)
}

func TestRouter_NotReady(t *testing.T) {
	h := newTestRouter(t, map[string]func(context.Context) error{
		"storage": func(context.Context) error { return nil },
		"cache":   func(context.Context) error { return errors.New("connection refused") },
	})

	code, body := get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := openStorage(context.Background(), Config{StorageDriver: "cassandra"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
