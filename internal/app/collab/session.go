// internal/app/collab/session.go
package collab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SessionDeps are the collaborators a Session needs beyond the Manager.
type SessionDeps struct {
	Manager *Manager
	Tasks   TaskStore
	Files   FileStore
	Blobs   BlobStore
	Log     *zap.Logger
}

// Session is the consistency boundary for one open group on behalf of
// one user. It holds an in-memory projection of the group's members,
// tasks, and files, gates every mutation on the caller's role snapshot,
// and applies successful results to the projection head-first.
//
// The generation counter guards abandoned sessions: Close bumps it, and
// an operation that completes afterwards returns its result without
// touching the projection.
type Session struct {
	deps    SessionDeps
	groupID primitive.ObjectID
	userID  primitive.ObjectID

	mu       sync.Mutex
	state    State
	gen      uint64
	group    models.Group
	role     rolepolicy.Role
	members  []membershipstore.MemberEntry
	tasks    []models.GroupTask
	files    []models.GroupFile
	warnings []string
}

// NewSession starts a session in Loading. Call Open to populate it.
func NewSession(deps SessionDeps, groupID, userID primitive.ObjectID) *Session {
	return &Session{deps: deps, groupID: groupID, userID: userID, state: StateLoading}
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View is an immutable snapshot of a Ready session's projection.
type View struct {
	Group    models.Group
	Role     rolepolicy.Role
	Members  []membershipstore.MemberEntry
	Tasks    []models.GroupTask
	Files    []models.GroupFile
	Warnings []string
}

// View returns the current projection. Only valid in Ready.
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return View{}, ErrSessionNotReady
	}
	v := View{
		Group:    s.group,
		Role:     s.role,
		Members:  append([]membershipstore.MemberEntry(nil), s.members...),
		Tasks:    append([]models.GroupTask(nil), s.tasks...),
		Files:    append([]models.GroupFile(nil), s.files...),
		Warnings: append([]string(nil), s.warnings...),
	}
	return v, nil
}

// Open fetches the group, the caller's role, the member list, and the
// task and file lists. Group identity and membership are fatal on
// failure; task and file fetches degrade to empty lists with a recorded
// warning. A non-member gets ErrGroupNotFound, same as an absent group.
// Open may be called again from Failed (retry) or Ready (refresh).
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateLoading
	gen := s.gen
	s.mu.Unlock()

	group, err := s.deps.Manager.groups.GetByID(ctx, s.groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.fail(gen, ErrGroupNotFound)
		}
		return s.fail(gen, fmt.Errorf("fetching group: %w", err))
	}

	role, err := s.deps.Manager.RoleOf(ctx, s.groupID, s.userID)
	if err != nil {
		return s.fail(gen, fmt.Errorf("resolving role: %w", err))
	}
	if role == rolepolicy.RoleNone {
		return s.fail(gen, ErrGroupNotFound)
	}

	members, err := s.deps.Manager.ListActive(ctx, s.groupID)
	if err != nil {
		return s.fail(gen, fmt.Errorf("listing members: %w", err))
	}

	var warnings []string

	tasks, err := s.deps.Tasks.ListByGroup(ctx, s.groupID)
	if err != nil {
		s.deps.Log.Warn("task list fetch failed, degrading to empty",
			zap.String("group_id", s.groupID.Hex()), zap.Error(err))
		tasks = nil
		warnings = append(warnings, "tasks could not be loaded")
	}

	files, err := s.deps.Files.ListByGroup(ctx, s.groupID)
	if err != nil {
		s.deps.Log.Warn("file list fetch failed, degrading to empty",
			zap.String("group_id", s.groupID.Hex()), zap.Error(err))
		files = nil
		warnings = append(warnings, "files could not be loaded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state == StateClosed {
		return ErrSessionClosed
	}
	s.state = StateReady
	s.group = group
	s.role = role
	s.members = members
	s.tasks = tasks
	s.files = files
	s.warnings = warnings
	return nil
}

func (s *Session) fail(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.state != StateClosed {
		s.state = StateFailed
	}
	return err
}

// Close abandons the session. Any operation still in flight completes
// against the gateway but its result is discarded locally.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.gen++
}

// gate checks the session is Ready and the caller's role satisfies ok.
// It returns the generation to validate against when applying results.
// A failed gate means the gateway is never called.
func (s *Session) gate(ok func(rolepolicy.Role) bool) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return 0, ErrSessionClosed
	case StateReady:
	default:
		return 0, ErrSessionNotReady
	}
	if !ok(s.role) {
		return 0, ErrPermissionDenied
	}
	return s.gen, nil
}

// TaskInput is the caller-provided portion of a new group task.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// CreateTask creates a task in the group. Requires an editing role.
func (s *Session) CreateTask(ctx context.Context, in TaskInput) (models.GroupTask, error) {
	gen, err := s.gate(rolepolicy.CanEditContent)
	if err != nil {
		return models.GroupTask{}, err
	}

	t, err := s.deps.Tasks.Insert(ctx, models.GroupTask{
		GroupID:     s.groupID,
		CreatorID:   s.userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return models.GroupTask{}, err
	}

	s.mu.Lock()
	if s.gen == gen && s.state == StateReady {
		s.tasks = append([]models.GroupTask{t}, s.tasks...)
	}
	s.mu.Unlock()
	return t, nil
}

// ToggleTaskStatus flips a task between pending and completed.
// Requires an editing role; the task must belong to this group.
func (s *Session) ToggleTaskStatus(ctx context.Context, taskID primitive.ObjectID) (models.GroupTask, error) {
	gen, err := s.gate(rolepolicy.CanEditContent)
	if err != nil {
		return models.GroupTask{}, err
	}

	t, err := s.deps.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupTask{}, ErrTaskNotFound
		}
		return models.GroupTask{}, err
	}
	if t.GroupID != s.groupID {
		return models.GroupTask{}, ErrTaskNotFound
	}

	next := models.TaskCompleted
	if t.Status == models.TaskCompleted {
		next = models.TaskPending
	}
	if err := s.deps.Tasks.SetStatus(ctx, taskID, next); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupTask{}, ErrTaskNotFound
		}
		return models.GroupTask{}, err
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	if s.gen == gen && s.state == StateReady {
		for i := range s.tasks {
			if s.tasks[i].ID == taskID {
				s.tasks[i] = t
				break
			}
		}
	}
	s.mu.Unlock()
	return t, nil
}

// UploadFile writes the blob first and the metadata row second.
// A blob failure aborts cleanly. A metadata failure after a committed
// blob leaves an orphan blob, which is logged and reported as a
// PartialFailureError; the file never appears in the list.
func (s *Session) UploadFile(ctx context.Context, name string, size int64, contentType string, r io.Reader) (models.GroupFile, error) {
	gen, err := s.gate(rolepolicy.CanEditContent)
	if err != nil {
		return models.GroupFile{}, err
	}

	path := s.groupID.Hex() + "/" + uuid.New().String()[:8] + "_" + sanitizeFileName(name)

	opts := &storage.PutOptions{ContentType: contentType}
	if err := s.deps.Blobs.Put(ctx, path, r, opts); err != nil {
		return models.GroupFile{}, fmt.Errorf("storing file: %w", err)
	}

	f, err := s.deps.Files.Insert(ctx, models.GroupFile{
		GroupID:    s.groupID,
		UploadedBy: s.userID,
		FileName:   name,
		FilePath:   path,
		FileSize:   size,
		MimeType:   contentType,
	})
	if err != nil {
		s.deps.Log.Error("file metadata insert failed after blob write, orphan blob left",
			zap.String("group_id", s.groupID.Hex()),
			zap.String("path", path),
			zap.Error(err))
		return models.GroupFile{}, &PartialFailureError{Op: "upload", Path: path, Committed: false, Err: err}
	}

	s.mu.Lock()
	if s.gen == gen && s.state == StateReady {
		s.files = append([]models.GroupFile{f}, s.files...)
	}
	s.mu.Unlock()
	return f, nil
}

// DeleteFile removes the blob best-effort and then the metadata row.
// The metadata delete is authoritative: if it fails the file stays
// listed and the error is returned for a retry. A blob failure alone is
// reported as a Committed PartialFailureError after the row is gone.
func (s *Session) DeleteFile(ctx context.Context, fileID primitive.ObjectID) error {
	gen, err := s.gate(rolepolicy.CanEditContent)
	if err != nil {
		return err
	}

	f, err := s.deps.Files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrFileNotFound
		}
		return err
	}
	if f.GroupID != s.groupID {
		return ErrFileNotFound
	}

	blobErr := s.deps.Blobs.Delete(ctx, f.FilePath)
	if blobErr != nil {
		s.deps.Log.Warn("blob delete failed, removing metadata anyway",
			zap.String("path", f.FilePath), zap.Error(blobErr))
	}

	if _, err := s.deps.Files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	s.mu.Lock()
	if s.gen == gen && s.state == StateReady {
		kept := s.files[:0]
		for _, x := range s.files {
			if x.ID != fileID {
				kept = append(kept, x)
			}
		}
		s.files = kept
	}
	s.mu.Unlock()

	if blobErr != nil {
		return &PartialFailureError{Op: "delete", Path: f.FilePath, Committed: true, Err: blobErr}
	}
	return nil
}

// Invite adds a viewer by email and refreshes the member projection.
// Only admins pass the gate; the Manager re-checks against the stored
// role rather than trusting this session's snapshot.
func (s *Session) Invite(ctx context.Context, email string) (models.GroupMembership, error) {
	gen, err := s.gate(rolepolicy.CanManageMembers)
	if err != nil {
		return models.GroupMembership{}, err
	}

	mem, err := s.deps.Manager.Invite(ctx, s.groupID, s.userID, email)
	if err != nil {
		return models.GroupMembership{}, err
	}

	members, listErr := s.deps.Manager.ListActive(ctx, s.groupID)
	if listErr != nil {
		s.deps.Log.Warn("member list refresh failed after invite",
			zap.String("group_id", s.groupID.Hex()), zap.Error(listErr))
		return mem, nil
	}

	s.mu.Lock()
	if s.gen == gen && s.state == StateReady {
		s.members = members
	}
	s.mu.Unlock()
	return mem, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}
