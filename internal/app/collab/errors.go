// internal/app/collab/errors.go
package collab

import (
	"errors"
	"fmt"
)

// User-facing taxonomy. The HTTP layer maps these to status codes in one
// place; nothing below this package invents its own variants.
var (
	// ErrGroupNotFound covers both a genuinely absent group and a group
	// the caller is not an active member of. Non-members cannot observe
	// that a group exists.
	ErrGroupNotFound = errors.New("group not found")

	ErrInviteeNotFound  = errors.New("no account matches that email")
	ErrAlreadyMember    = errors.New("user is already a member of this group")
	ErrPermissionDenied = errors.New("you do not have permission to do that")
	ErrTaskNotFound     = errors.New("task not found")
	ErrFileNotFound     = errors.New("file not found")

	ErrSessionNotReady = errors.New("group session is not ready")
	ErrSessionClosed   = errors.New("group session is closed")
)

// PartialFailureError reports a file operation where the blob and the
// metadata row ended up out of step. Committed says whether the
// authoritative half (the metadata row) reflects the user's intent: a
// delete whose blob removal failed is Committed (the file is gone from
// lists), an upload whose metadata insert failed is not (the blob is
// orphaned and the file never appears).
type PartialFailureError struct {
	Op        string // "upload" or "delete"
	Path      string // blob key involved
	Committed bool
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("file %s partially failed at %q: %v", e.Op, e.Path, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
