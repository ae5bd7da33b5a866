// internal/app/features/groups/create.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	"github.com/zm10123/taskhive/internal/app/system/authz"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreateGroup serves POST /groups. The creator becomes the
// group's admin in the same request; if that second write fails the
// group stays in place and the error is surfaced, so a retry of the
// bootstrap (which is idempotent) can finish the job.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := authz.UserCtx(r)
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "group name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.manager().CreateGroup(ctx, req.Name, req.Description, uid)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"group": g,
		"role":  rolepolicy.RoleAdmin,
	})
}
