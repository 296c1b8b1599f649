package http

import (
	"net/http"

	"github.com/KarpovAlexandrGo/task-tracker/internal/usecase"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// taskRequest - тело запроса на создание и изменение задачи.
// Поля владельца и id из тела игнорируются.
type taskRequest struct {
	Title       string `json:"title" example:"Buy milk"`
	Description string `json:"description" example:"2%"`
	DueDate     string `json:"dueDate" example:"2024-01-01T00:00:00Z"`
	Status      string `json:"status,omitempty" enums:"Pending,In Progress,Completed"`
}

func (req taskRequest) toInput() usecase.TaskInput {
	return usecase.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
	}
}

// TaskHandler обрабатывает HTTP-запросы для работы с задачами.
type TaskHandler struct {
	taskUseCase usecase.TaskUseCase
}

// NewTaskHandler создает новый экземпляр TaskHandler.
func NewTaskHandler(taskUseCase usecase.TaskUseCase) *TaskHandler {
	return &TaskHandler{
		taskUseCase: taskUseCase,
	}
}

// RegisterRoutes регистрирует маршруты для обработки задач.
// Маршруты должны быть закрыты RequireAuth.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/filter", h.FilterTasks)
		r.Route("/{taskId}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
		})
	})
}

// CreateTask обрабатывает создание новой задачи.
// @Summary      Создать задачу
// @Description  Создает задачу текущего пользователя. Статус по умолчанию Pending.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        task body     taskRequest true "Данные задачи"
// @Success      200  {object} taskResponse
// @Failure      400  {object} statusResponse "Ошибка валидации"
// @Failure      401  {object} statusResponse "Нет токена"
// @Failure      500  {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks [post]
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	task, err := h.taskUseCase.Create(r.Context(), owner, req.toInput())
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, taskResponse{Status: true, Task: task, Msg: "Task created successfully.."})
}

// GetTask обрабатывает получение задачи по ID.
// @Summary      Получить задачу
// @Description  Возвращает задачу текущего пользователя. Чужая задача не отличается от отсутствующей.
// @Tags         tasks
// @Produce      json
// @Security     ApiKeyAuth
// @Param        taskId path     string true "ID задачи"
// @Success      200    {object} taskResponse
// @Failure      400    {object} statusResponse "Неверный ID или задача не найдена"
// @Failure      401    {object} statusResponse "Нет токена"
// @Failure      500    {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{taskId} [get]
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	task, err := h.taskUseCase.Get(r.Context(), owner, chi.URLParam(r, "taskId"))
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, taskResponse{Status: true, Task: task, Msg: "Task found successfully.."})
}

// ListTasks обрабатывает получение списка задач.
// @Summary      Список задач
// @Description  Возвращает все задачи текущего пользователя. С параметром status работает как /tasks/filter.
// @Tags         tasks
// @Produce      json
// @Security     ApiKeyAuth
// @Param        status query    string false "Статус" Enums(Pending, In Progress, Completed)
// @Success      200    {object} tasksResponse
// @Failure      400    {object} statusResponse "Неверный статус"
// @Failure      401    {object} statusResponse "Нет токена"
// @Failure      500    {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks [get]
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("status") {
		h.FilterTasks(w, r)
		return
	}

	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskUseCase.List(r.Context(), owner)
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tasksResponse{Status: true, Tasks: tasks, Msg: "Tasks found successfully.."})
}

// FilterTasks обрабатывает выборку задач по статусу.
// @Summary      Задачи по статусу
// @Description  Возвращает задачи текущего пользователя с указанным статусом
// @Tags         tasks
// @Produce      json
// @Security     ApiKeyAuth
// @Param        status query    string true "Статус" Enums(Pending, In Progress, Completed)
// @Success      200    {object} tasksResponse
// @Failure      400    {object} statusResponse "Статус не указан или неверен"
// @Failure      401    {object} statusResponse "Нет токена"
// @Failure      500    {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks/filter [get]
func (h *TaskHandler) FilterTasks(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskUseCase.ListFiltered(r.Context(), owner, r.URL.Query().Get("status"))
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	msg := "Filtered tasks found successfully.."
	if len(tasks) == 0 {
		msg = "No tasks found with the specified status"
	}
	respondWithJSON(w, http.StatusOK, tasksResponse{Status: true, Tasks: tasks, Msg: msg})
}

// UpdateTask обрабатывает обновление задачи.
// @Summary      Обновить задачу
// @Description  Заменяет title, description, dueDate и status задачи текущего пользователя
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        taskId path     string      true "ID задачи"
// @Param        task   body     taskRequest true "Обновленные данные задачи"
// @Success      200    {object} taskResponse
// @Failure      400    {object} statusResponse "Неверный ID или данные, задача не найдена"
// @Failure      401    {object} statusResponse "Нет токена"
// @Failure      403    {object} statusResponse "Задача другого пользователя"
// @Failure      500    {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{taskId} [put]
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	task, err := h.taskUseCase.Update(r.Context(), owner, chi.URLParam(r, "taskId"), req.toInput())
	if err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, taskResponse{Status: true, Task: task, Msg: "Task updated successfully.."})
}

// DeleteTask обрабатывает удаление задачи.
// @Summary      Удалить задачу
// @Description  Удаляет задачу текущего пользователя
// @Tags         tasks
// @Produce      json
// @Security     ApiKeyAuth
// @Param        taskId path     string true "ID задачи"
// @Success      200    {object} statusResponse
// @Failure      400    {object} statusResponse "Неверный ID или задача не найдена"
// @Failure      401    {object} statusResponse "Нет токена"
// @Failure      403    {object} statusResponse "Задача другого пользователя"
// @Failure      500    {object} statusResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{taskId} [delete]
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.taskUseCase.Delete(r.Context(), owner, chi.URLParam(r, "taskId")); err != nil {
		respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, statusResponse{Status: true, Msg: "Task deleted successfully.."})
}
