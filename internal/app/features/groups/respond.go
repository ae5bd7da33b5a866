// internal/app/features/groups/respond.go
package groups

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zm10123/taskhive/internal/app/collab"
	"go.uber.org/zap"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func badRequest(w http.ResponseWriter, message string) {
	respondErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

// respondError is the single place the collab taxonomy turns into HTTP.
// Anything outside the taxonomy is treated as a transient upstream
// failure: logged, and answered with a retryable 502.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, collab.ErrGroupNotFound):
		respondErrorCode(w, http.StatusNotFound, "GROUP_NOT_FOUND", err.Error())
	case errors.Is(err, collab.ErrTaskNotFound):
		respondErrorCode(w, http.StatusNotFound, "TASK_NOT_FOUND", err.Error())
	case errors.Is(err, collab.ErrFileNotFound):
		respondErrorCode(w, http.StatusNotFound, "FILE_NOT_FOUND", err.Error())
	case errors.Is(err, collab.ErrInviteeNotFound):
		respondErrorCode(w, http.StatusNotFound, "INVITEE_NOT_FOUND", err.Error())
	case errors.Is(err, collab.ErrAlreadyMember):
		respondErrorCode(w, http.StatusConflict, "ALREADY_MEMBER", err.Error())
	case errors.Is(err, collab.ErrPermissionDenied):
		respondErrorCode(w, http.StatusForbidden, "PERMISSION_DENIED", err.Error())
	default:
		var pf *collab.PartialFailureError
		if errors.As(err, &pf) && !pf.Committed {
			respondErrorCode(w, http.StatusBadGateway, "PARTIAL_FAILURE",
				"the upload did not complete; please try again")
			return
		}
		log.Error("request failed", zap.Error(err))
		respondErrorCode(w, http.StatusBadGateway, "TRANSIENT_IO",
			"a storage error occurred; please try again")
	}
}
