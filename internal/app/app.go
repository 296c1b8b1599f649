package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/auth"
	httpcontroller "github.com/KarpovAlexandrGo/task-tracker/internal/controller/http"
	"github.com/KarpovAlexandrGo/task-tracker/internal/metrics"
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

type App struct {
	Server          *http.Server
	storage         *storage
	cache           cache
	shutdownTimeout time.Duration
}

func NewApp(ctx context.Context, cfg Config) (*App, error) {
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.WithField("driver", store.driver).Info("Storage initialized")

	cacheRepo := openCache(ctx, cfg)

	// Инициализация use case
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
		Issuer: cfg.JWTIssuer,
	})
	taskUseCase := usecase.NewTaskUseCase(store.taskRepo, cacheRepo, cfg.CacheTTL)
	authUseCase := usecase.NewAuthUseCase(store.userRepo, auth.NewPasswordHasher(auth.DefaultBcryptCost), tokens)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := setupRouter(routerDeps{
		taskUseCase: taskUseCase,
		authUseCase: authUseCase,
		tokens:      tokens,
		metrics:     metrics.New(reg),
		checks: map[string]func(context.Context) error{
			"storage": store.ping,
			"cache":   cacheRepo.Ping,
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Server:          server,
		storage:         store,
		cache:           cacheRepo,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

type routerDeps struct {
	taskUseCase usecase.TaskUseCase
	authUseCase usecase.AuthUseCase
	tokens      httpcontroller.TokenValidator
	metrics     *metrics.Metrics
	checks      map[string]func(context.Context) error
}

func setupRouter(deps routerDeps) *chi.Mux {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Heartbeat("/health"),
		deps.metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)

	router.Mount("/api", httpcontroller.NewAPIRouter(deps.taskUseCase, deps.authUseCase, deps.tokens))

	router.Get("/ready", readinessHandler(deps.checks))
	router.Handle("/metrics", deps.metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return router
}

// readinessHandler параллельно проверяет зависимости сервиса.
func readinessHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			name, check := name, check
			g.Go(func() error {
				if err := check(gctx); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			logger.Log.WithError(err).Warn("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		_, _ = w.Write([]byte("ready"))
	}
}

// Run запускает HTTP-сервер и блокируется до сигнала остановки.
// Возвращает код выхода процесса.
func (a *App) Run() int {
	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server on " + a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), a.shutdownTimeout, map[string]gfshutdown.Operation{
		"app": a.shutdown,
	})

	select {
	case err, ok := <-serverErr:
		if ok {
			logger.Log.WithError(err).Error("Server failed")
			a.closeResources(context.Background())
			return 1
		}
		return <-wait
	case code := <-wait:
		logger.Log.WithField("code", code).Info("Server stopped gracefully")
		return code
	}
}

// shutdown сначала останавливает прием запросов, затем закрывает кэш и хранилище.
func (a *App) shutdown(ctx context.Context) error {
	logger.Log.Info("Shutdown signal received")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("HTTP server shutdown failed")
		errs = append(errs, err)
	}
	if err := a.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) error {
	var errs []error
	if err := a.cache.Close(); err != nil {
		logger.Log.WithError(err).Error("Failed to close cache")
		errs = append(errs, err)
	}
	if err := a.storage.close(ctx); err != nil {
		logger.Log.WithError(err).Error("Failed to close storage")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
