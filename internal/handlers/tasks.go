package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TaskHandler handles task requests
type TaskHandler struct {
	repo    database.TaskRepositoryInterface
	metrics metrics.Recorder
	logger  *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repo database.TaskRepositoryInterface, rec metrics.Recorder, log *zap.Logger) *TaskHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{repo: repo, metrics: rec, logger: log}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title      string `json:"title" validate:"notblank,max=500"`
	Motivation string `json:"motivation" validate:"max=2000"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// ListTasks returns the user's tasks, oldest first
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_list_tasks", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	req.Motivation = validation.SanitizeText(req.Motivation)
	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	task := &models.Task{
		UserID:     user.ID,
		Title:      req.Title,
		Motivation: req.Motivation,
	}
	if err := h.repo.Create(r.Context(), task); err != nil {
		h.logger.Error("failed_to_create_task",
			zap.String("title", logger.SanitizeTitle(task.Title)),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}
	h.metrics.RecordTaskCreated()

	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask sets the completion state of a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	task, err := h.repo.SetCompleted(r.Context(), user.ID, id, *req.Completed)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_update_task", zap.String("task_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}
	h.metrics.RecordTaskToggled(task.Completed)

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}

	err := h.repo.Delete(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_delete_task", zap.String("task_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
