package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/google/uuid"
)

type contextKey string

const userKey contextKey = "userID"

// TokenValidator извлекает идентификатор пользователя из токена.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// RequireAuth пропускает запрос дальше только с действительным токеном.
// Принимается как "Bearer <token>", так и токен без префикса.
func RequireAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			if after, ok := strings.CutPrefix(token, "Bearer "); ok {
				token = strings.TrimSpace(after)
			}
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization token is required")
				return
			}

			userID, err := tokens.Validate(token)
			if err != nil {
				logger.Log.WithError(err).Debug("Token rejected")
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID кладет идентификатор пользователя в контекст.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext возвращает идентификатор, сохраненный RequireAuth.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userKey).(uuid.UUID)
	return userID, ok
}

// callerID достает владельца запроса. Без RequireAuth это ошибка маршрутизации.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		logger.Log.WithField("path", r.URL.Path).Error("Authenticated route without user in context")
		respondWithError(w, http.StatusUnauthorized, "Authorization token is required")
	}
	return userID, ok
}
