// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/zm10123/taskhive/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires an authenticated caller
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// LIST + CREATE
		pr.Get("/", h.HandleListGroups)
		pr.Post("/", h.HandleCreateGroup)

		// OPEN (group header, members, tasks, files in one view)
		pr.Get("/{id}", h.HandleViewGroup)

		// MEMBERSHIP
		pr.Post("/{id}/invitations", h.HandleInvite)

		// TASKS
		pr.Post("/{id}/tasks", h.HandleCreateTask)
		pr.Post("/{id}/tasks/{taskID}/toggle", h.HandleToggleTask)

		// FILES
		pr.Post("/{id}/files", h.HandleUploadFile)
		pr.Delete("/{id}/files/{fileID}", h.HandleDeleteFile)
	})

	return r
}
