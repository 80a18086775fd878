package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/service"
	"github.com/vedran77/autotask/internal/transport/http/middleware"
	"github.com/vedran77/autotask/pkg/validator"
)

type TaskHandler struct {
	taskService *service.TaskService
	logger      logging.Logger
}

func NewTaskHandler(taskService *service.TaskService, logger logging.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	var input service.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	fields := validator.TaskFields{
		Title:       &input.Title,
		Description: &input.Description,
		Status:      &input.Status,
		Priority:    &input.Priority,
		DueDate:     input.DueDate,
		Tags:        input.Tags,
	}
	if errs := validator.ValidateTask(fields, true); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	task, err := h.taskService.Create(r.Context(), accountID, input)
	if err != nil {
		writeUnexpected(w, r, h.logger, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeUnexpected(w, r, h.logger, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), middleware.GetAccountID(r.Context()), taskID)
	if err != nil {
		h.writeTaskError(w, r, "get task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var input service.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	fields := validator.TaskFields{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Tags:        input.Tags,
	}
	if errs := validator.ValidateTask(fields, false); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	task, err := h.taskService.Update(r.Context(), middleware.GetAccountID(r.Context()), taskID, input)
	if err != nil {
		h.writeTaskError(w, r, "update task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), middleware.GetAccountID(r.Context()), taskID); err != nil {
		h.writeTaskError(w, r, "delete task", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, service.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Task not found")
		return
	}
	writeUnexpected(w, r, h.logger, op, err)
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}
