// internal/app/features/groups/files.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zm10123/taskhive/internal/app/collab"
	"github.com/zm10123/taskhive/internal/app/system/authz"
	"github.com/zm10123/taskhive/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxUploadBytes = 50 << 20 // 50 MiB

// HandleUploadFile serves POST /groups/{id}/files as a multipart form
// with a single "file" part. Editors and admins only.
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, `a "file" part is required`)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	s := h.session(gid, uid)
	if err := s.Open(ctx); err != nil {
		respondError(w, h.Log, err)
		return
	}

	gf, err := s.UploadFile(ctx, header.Filename, header.Size, contentType, file)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"file": gf})
}

// HandleDeleteFile serves DELETE /groups/{id}/files/{fileID}. The
// metadata row is authoritative: when only the blob removal fails the
// delete still succeeds, with a warning in the body.
func (h *Handler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
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
	fid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		badRequest(w, "invalid file id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	s := h.session(gid, uid)
	if err := s.Open(ctx); err != nil {
		respondError(w, h.Log, err)
		return
	}

	err = s.DeleteFile(ctx, fid)
	var pf *collab.PartialFailureError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
	case errors.As(err, &pf) && pf.Committed:
		respondJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"warning": "the stored file could not be removed and will be cleaned up later",
		})
	default:
		respondError(w, h.Log, err)
	}
}
