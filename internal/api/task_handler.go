package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// TaskHandler serves the task CRUD endpoints.
type TaskHandler struct {
	manager service.TaskManager
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(manager service.TaskManager, logger *slog.Logger) *TaskHandler {
	if manager == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("manager cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		manager: manager,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// Routes registers the task endpoints on r. It is meant to be mounted
// under /tasks.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateTask)
	r.Get("/", h.ListTasks)
	r.Get("/{task_id}", h.GetTask)
	r.Put("/{task_id}", h.UpdateTask)
	r.Delete("/{task_id}", h.DeleteTask)
}

// CreateTask handles POST /tasks/ requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req domain.CreateTaskRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.manager.CreateTask(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("task created", slog.Int64("task_id", task.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// GetTask handles GET /tasks/{task_id} requests.
// A missing task is answered with 200 and a JSON null body.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.manager.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if task == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, nil)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListTasks handles GET /tasks/ requests with an optional ?status= filter.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status, err := getStatusQuery(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tasks, err := h.manager.ListTasks(r.Context(), domain.ListTasksRequest{Status: status})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// UpdateTask handles PUT /tasks/{task_id} requests.
// Only the fields present in the body are changed.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req domain.UpdateTaskRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.manager.UpdateTask(r.Context(), id, req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("task updated", slog.Int64("task_id", task.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{task_id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	deleted, err := h.manager.DeleteTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("task deleted", slog.Int64("task_id", deleted.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, deleted)
}
