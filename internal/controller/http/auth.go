package http

import (
	"net/http"

	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type signupRequest struct {
	Name     string `json:"name" example:"Ann"`
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"secret-password"`
}

type loginRequest struct {
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"secret-password"`
}

// AuthHandler обрабатывает регистрацию, вход и профиль пользователя.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
}

func NewAuthHandler(authUseCase usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

// RegisterRoutes регистрирует открытые маршруты.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
}

// RegisterProtectedRoutes регистрирует маршруты, требующие токен.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/profile", h.Profile)
}

// Signup обрабатывает регистрацию.
// @Summary      Регистрация
// @Description  Создает пользователя и возвращает токен доступа
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user body     signupRequest true "Данные пользователя"
// @Success      200  {object} authResponse
// @Failure      400  {object} statusResponse "Ошибка валидации или email занят"
// @Failure      500  {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	session, err := h.authUseCase.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Status: true,
		Msg:    "Congratulations!! Account has been created for you..",
		Token:  session.Token,
		User:   session.User,
	})
}

// Login обрабатывает вход.
// @Summary      Вход
// @Description  Проверяет email и пароль и возвращает токен доступа
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body     loginRequest true "Email и пароль"
// @Success      200         {object} authResponse
// @Failure      400         {object} statusResponse "Неверные данные"
// @Failure      500         {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	session, err := h.authUseCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Status: true,
		Msg:    "Login successful..",
		Token:  session.Token,
		User:   session.User,
	})
}

// Profile возвращает текущего пользователя.
// @Summary      Профиль
// @Tags         auth
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} userResponse
// @Failure      400 {object} statusResponse "Пользователь не найден"
// @Failure      401 {object} statusResponse "Нет токена"
// @Failure      500 {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.authUseCase.Profile(r.Context(), userID)
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, userResponse{Status: true, Msg: "Profile found successfully..", User: user})
}
