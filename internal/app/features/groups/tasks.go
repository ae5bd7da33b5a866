// internal/app/features/groups/tasks.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zm10123/taskhive/internal/app/collab"
	"github.com/zm10123/taskhive/internal/app/system/authz"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// HandleCreateTask serves POST /groups/{id}/tasks. Editors and admins
// only; the task defaults to pending/medium.
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := authz.UserCtx(r)
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
		return
	}

	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid group id")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		badRequest(w, "task title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s := h.session(gid, uid)
	if err := s.Open(ctx); err != nil {
		respondError(w, h.Log, err)
		return
	}

	task, err := s.CreateTask(ctx, collab.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"task": task})
}

// HandleToggleTask serves POST /groups/{id}/tasks/{taskID}/toggle,
// flipping a task between pending and completed.
func (h *Handler) HandleToggleTask(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := authz.UserCtx(r)
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
		return
	}

	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid group id")
		return
	}
	tid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s := h.session(gid, uid)
	if err := s.Open(ctx); err != nil {
		respondError(w, h.Log, err)
		return
	}

	task, err := s.ToggleTaskStatus(ctx, tid)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"task": task})
}
