// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	"github.com/zm10123/taskhive/internal/app/system/authz"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
)

// HandleListGroups serves GET /groups: the groups the caller actively
// belongs to, newest first, each with the caller's role.
func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	uid, _, _, ok := authz.UserCtx(r)
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.manager().ListGroupsFor(ctx, uid)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	if list == nil {
		list = []membershipstore.GroupWithRole{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"groups": list})
}
