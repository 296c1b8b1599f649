// Package http содержит HTTP-обработчики API задач.
package http

import (
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// NewAPIRouter собирает маршруты /api: открытые /auth/* и защищенные токеном /tasks, /profile.
func NewAPIRouter(taskUseCase usecase.TaskUseCase, authUseCase usecase.AuthUseCase, tokens TokenValidator) chi.Router {
	taskHandler := NewTaskHandler(taskUseCase)
	authHandler := NewAuthHandler(authUseCase)

	r := chi.NewRouter()
	authHandler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		authHandler.RegisterProtectedRoutes(r)
		taskHandler.RegisterRoutes(r)
	})
	return r
}
