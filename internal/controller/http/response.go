package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
)

const msgInvalidPayload = "Invalid request payload"

// statusResponse - общий конверт ответа.
type statusResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
}

type taskResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Task   entity.Task `json:"task"`
}

type tasksResponse struct {
	Status bool          `json:"status"`
	Msg    string        `json:"msg"`
	Tasks  []entity.Task `json:"tasks"`
}

type userResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	User   entity.User `json:"user"`
}

type authResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Token  string      `json:"token"`
	User   entity.User `json:"user"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, statusResponse{Status: false, Msg: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Log.WithError(err).Error("Failed to encode response")
		}
	}
}

// respondWithUseCaseError переводит ошибку use case слоя в HTTP-ответ.
func respondWithUseCaseError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInternal):
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrTaskNotFound),
		errors.Is(err, usecase.ErrUserNotFound):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrForbidden):
		code = http.StatusForbidden
	}
	respondWithError(w, code, usecase.Message(err))
}

// decodeJSON читает тело запроса. Пустое тело не считается ошибкой.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
