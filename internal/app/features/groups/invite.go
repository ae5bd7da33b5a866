// internal/app/features/groups/invite.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/zm10123/taskhive/internal/app/system/authz"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteRequest struct {
	Email string `json:"email"`
}

// HandleInvite serves POST /groups/{id}/invitations. Admin only; the
// invitee joins immediately as an active viewer.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
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

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		badRequest(w, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mem, err := h.manager().Invite(ctx, gid, uid, req.Email)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"membership": mem})
}
