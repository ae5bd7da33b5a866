// internal/app/features/groups/view.go
package groups

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/app/system/authz"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleViewGroup serves GET /groups/{id}: the whole group view in one
// response. Absent groups and groups the caller is not a member of are
// indistinguishable 404s. Task or file fetch failures degrade to empty
// lists and are reported in "warnings" instead of failing the view.
func (h *Handler) HandleViewGroup(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s := h.session(gid, uid)
	if err := s.Open(ctx); err != nil {
		respondError(w, h.Log, err)
		return
	}
	v, err := s.View()
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	if v.Members == nil {
		v.Members = []membershipstore.MemberEntry{}
	}
	if v.Tasks == nil {
		v.Tasks = []models.GroupTask{}
	}
	if v.Files == nil {
		v.Files = []models.GroupFile{}
	}
	if v.Warnings == nil {
		v.Warnings = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"group":    v.Group,
		"role":     v.Role,
		"members":  v.Members,
		"tasks":    v.Tasks,
		"files":    v.Files,
		"warnings": v.Warnings,
	})
}
