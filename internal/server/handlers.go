package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reminder/internal/logger"
	"reminder/internal/manager"
	"reminder/internal/models"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибку домена в HTTP-статус.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, manager.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, manager.ErrDuplicateTitle):
		status = http.StatusConflict
	case errors.Is(err, manager.ErrInvalidRequest),
		errors.Is(err, manager.ErrIDMismatch),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrEmptyTitle):
		status = http.StatusBadRequest
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
		detail = "internal error"
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func taskID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// Неизвестный формат id: такой задачи нет.
		return uuid.Nil, fmt.Errorf("%w: %s", manager.ErrNotFound, chi.URLParam(r, "id"))
	}
	return id, nil
}

func listTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := manager.ParseFilter(r.URL.Query().Get("filter"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		tasks, err := tm.ListTasks(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func addTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req manager.CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", manager.ErrInvalidRequest, err))
			return
		}

		task, err := tm.AddTask(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

func getTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		task, err := tm.GetTask(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func updateTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		id, err := taskID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req manager.UpdateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if !errors.Is(err, manager.ErrInvalidRequest) && !errors.Is(err, models.ErrInvalidDate) {
				err = fmt.Errorf("%w: %v", manager.ErrInvalidRequest, err)
			}
			writeError(w, r, err)
			return
		}

		task, err := tm.UpdateTask(r.Context(), id, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func deleteTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := tm.DeleteTask(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"detail": "Task deleted"})
	}
}

func readyHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tm.Ready(r.Context()); err != nil {
			logger.Warn(r.Context(), "readiness check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
