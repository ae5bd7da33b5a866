package collab_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zm10123/taskhive/internal/app/collab"
	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	"github.com/zm10123/taskhive/internal/domain/models"
	"github.com/zm10123/taskhive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newSession(f *testutil.Fakes, groupID, userID primitive.ObjectID) *collab.Session {
	return collab.NewSession(collab.SessionDeps{
		Manager: newManager(f),
		Tasks:   f.Tasks,
		Files:   f.Files,
		Blobs:   f.Blobs,
		Log:     zap.NewNop(),
	}, groupID, userID)
}

// seedGroupWith seeds a group whose creator holds the given role.
func seedGroupWith(f *testutil.Fakes, role rolepolicy.Role) (models.Group, models.Profile) {
	p := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	g := f.DB.SeedGroup("CS101 Team", p.ID)
	f.DB.SeedMembership(g.ID, p.ID, string(role))
	return g, p
}

func TestOpen_AbsentGroupIsFatal(t *testing.T) {
	f := testutil.NewFakes()
	user := f.DB.SeedProfile("a@uni.ac.uk", "User A")

	s := newSession(f, primitive.NewObjectID(), user.ID)
	err := s.Open(context.Background())
	require.ErrorIs(t, err, collab.ErrGroupNotFound)
	assert.Equal(t, collab.StateFailed, s.State())

	_, err = s.CreateTask(context.Background(), collab.TaskInput{Title: "x"})
	assert.ErrorIs(t, err, collab.ErrSessionNotReady)
}

func TestOpen_NonMemberSeesNotFound(t *testing.T) {
	f := testutil.NewFakes()
	g, _ := seedGroupWith(f, rolepolicy.RoleAdmin)
	outsider := f.DB.SeedProfile("x@uni.ac.uk", "User X")

	s := newSession(f, g.ID, outsider.ID)
	err := s.Open(context.Background())
	assert.ErrorIs(t, err, collab.ErrGroupNotFound)
	assert.Equal(t, collab.StateFailed, s.State())
}

func TestOpen_TasksAndFilesDegradeIndependently(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleAdmin)
	f.Tasks.ListErr = errors.New("tasks shard down")
	f.Files.ListErr = errors.New("files shard down")

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()), "degraded tabs must not block the view")
	assert.Equal(t, collab.StateReady, s.State())

	v, err := s.View()
	require.NoError(t, err)
	assert.Empty(t, v.Tasks)
	assert.Empty(t, v.Files)
	assert.Len(t, v.Warnings, 2)
	assert.Equal(t, rolepolicy.RoleAdmin, v.Role)
	assert.Len(t, v.Members, 1)
}

func TestOpen_RetriesOutOfFailed(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleAdmin)
	f.Groups.GetErr = errors.New("primary unreachable")

	s := newSession(f, g.ID, p.ID)
	require.Error(t, s.Open(context.Background()))
	assert.Equal(t, collab.StateFailed, s.State())

	f.Groups.GetErr = nil
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, collab.StateReady, s.State())
}

func TestViewerMutationsRejectedWithoutGatewayCalls(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleViewer)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	_, err := s.CreateTask(context.Background(), collab.TaskInput{Title: "Submit report"})
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)
	assert.Zero(t, f.DB.Calls("tasks.insert"))

	_, err = s.UploadFile(context.Background(), "notes.pdf", 3, "application/pdf", strings.NewReader("abc"))
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)
	assert.Zero(t, f.Blobs.Puts())

	err = s.DeleteFile(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)
	assert.Zero(t, f.DB.Calls("files.get"))

	_, err = s.Invite(context.Background(), "b@uni.ac.uk")
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)
	assert.Zero(t, f.DB.Calls("profiles.getbyemail"))
}

func TestCreateTask_AppearsAtHeadOfList(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	first, err := s.CreateTask(context.Background(), collab.TaskInput{Title: "Read chapter 1"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, first.Status)
	assert.Equal(t, models.PriorityMedium, first.Priority)

	second, err := s.CreateTask(context.Background(), collab.TaskInput{Title: "Submit report", Priority: models.PriorityHigh})
	require.NoError(t, err)

	v, err := s.View()
	require.NoError(t, err)
	require.Len(t, v.Tasks, 2)
	assert.Equal(t, second.ID, v.Tasks[0].ID, "newest task leads without a re-fetch")
	assert.Equal(t, first.ID, v.Tasks[1].ID)
}

func TestToggleTaskStatus(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	task, err := s.CreateTask(context.Background(), collab.TaskInput{Title: "Submit report"})
	require.NoError(t, err)

	done, err := s.ToggleTaskStatus(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)

	back, err := s.ToggleTaskStatus(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, back.Status)

	v, _ := s.View()
	assert.Equal(t, models.TaskPending, v.Tasks[0].Status)
}

func TestToggleTaskStatus_OtherGroupsTaskIsNotFound(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)
	otherGroup := f.DB.SeedGroup("CS999 Team", p.ID)
	foreign, err := f.Tasks.Insert(context.Background(), models.GroupTask{
		GroupID: otherGroup.ID, CreatorID: p.ID, Title: "not yours",
	})
	require.NoError(t, err)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	_, err = s.ToggleTaskStatus(context.Background(), foreign.ID)
	assert.ErrorIs(t, err, collab.ErrTaskNotFound)
}

func TestUploadFile_StoresBlobThenMetadata(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	gf, err := s.UploadFile(context.Background(), "final report.pdf", 3, "application/pdf", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gf.FilePath, g.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(gf.FilePath, "_final_report.pdf"))
	assert.True(t, f.Blobs.Has(gf.FilePath))

	v, _ := s.View()
	require.Len(t, v.Files, 1)
	assert.Equal(t, gf.ID, v.Files[0].ID)
}

func TestUploadFile_BlobFailureAborts(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)
	f.Blobs.PutErr = errors.New("bucket unavailable")

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	_, err := s.UploadFile(context.Background(), "notes.pdf", 3, "application/pdf", strings.NewReader("abc"))
	require.Error(t, err)
	assert.Zero(t, f.DB.Calls("files.insert"), "metadata insert never attempted after blob failure")

	v, _ := s.View()
	assert.Empty(t, v.Files)
}

func TestUploadFile_MetadataFailureLeavesOrphanBlob(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)
	f.Files.InsertErr = errors.New("metadata write failed")

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	_, err := s.UploadFile(context.Background(), "notes.pdf", 3, "application/pdf", strings.NewReader("abc"))

	var pf *collab.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "upload", pf.Op)
	assert.False(t, pf.Committed)
	assert.True(t, f.Blobs.Has(pf.Path), "orphan blob stays for a manual sweep")

	v, _ := s.View()
	assert.Empty(t, v.Files, "the file must not appear in the list")
}

func TestDeleteFile_BlobFailureStillRemovesMetadata(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))
	gf, err := s.UploadFile(context.Background(), "notes.pdf", 3, "application/pdf", strings.NewReader("abc"))
	require.NoError(t, err)

	f.Blobs.DeleteErr = errors.New("bucket unavailable")
	err = s.DeleteFile(context.Background(), gf.ID)

	var pf *collab.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "delete", pf.Op)
	assert.True(t, pf.Committed, "metadata delete is authoritative")

	v, _ := s.View()
	assert.Empty(t, v.Files, "the file disappears from the list")
}

func TestDeleteFile_MetadataFailureKeepsFileListed(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	s := newSession(f, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))
	gf, err := s.UploadFile(context.Background(), "notes.pdf", 3, "application/pdf", strings.NewReader("abc"))
	require.NoError(t, err)

	f.Files.DeleteErr = errors.New("metadata delete failed")
	err = s.DeleteFile(context.Background(), gf.ID)
	require.Error(t, err)
	var pf *collab.PartialFailureError
	assert.False(t, errors.As(err, &pf), "a failed authoritative delete is a plain failure")

	v, _ := s.View()
	require.Len(t, v.Files, 1, "the file stays listed so the delete can be retried")
	assert.Equal(t, gf.ID, v.Files[0].ID)
}

// blockingTasks delays Insert's return until released, so a test can
// close the session while the call is in flight.
type blockingTasks struct {
	collab.TaskStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTasks) Insert(ctx context.Context, t models.GroupTask) (models.GroupTask, error) {
	out, err := b.TaskStore.Insert(ctx, t)
	close(b.entered)
	<-b.release
	return out, err
}

func TestLateCompletionAfterCloseIsDiscarded(t *testing.T) {
	f := testutil.NewFakes()
	g, p := seedGroupWith(f, rolepolicy.RoleEditor)

	bt := &blockingTasks{
		TaskStore: f.Tasks,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	s := collab.NewSession(collab.SessionDeps{
		Manager: newManager(f),
		Tasks:   bt,
		Files:   f.Files,
		Blobs:   f.Blobs,
		Log:     zap.NewNop(),
	}, g.ID, p.ID)
	require.NoError(t, s.Open(context.Background()))

	type result struct {
		task models.GroupTask
		err  error
	}
	done := make(chan result, 1)
	go func() {
		task, err := s.CreateTask(context.Background(), collab.TaskInput{Title: "Submit report"})
		done <- result{task, err}
	}()

	<-bt.entered
	s.Close()
	close(bt.release)

	res := <-done
	require.NoError(t, res.err, "the result is still returned to the caller")
	assert.Equal(t, "Submit report", res.task.Title)
	assert.Equal(t, collab.StateClosed, s.State())
	assert.Equal(t, 1, f.DB.Calls("tasks.insert"), "the gateway write did happen")

	assert.ErrorIs(t, s.Open(context.Background()), collab.ErrSessionClosed)
}

// The end-to-end flow: A creates a group, invites B, B cannot mutate,
// A's new task leads the list for both.
func TestGroupCollaborationScenario(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	a := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	b := f.DB.SeedProfile("b@uni.ac.uk", "User B")

	g, err := m.CreateGroup(context.Background(), "CS101 Team", "", a.ID)
	require.NoError(t, err)

	roleA, err := m.RoleOf(context.Background(), g.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rolepolicy.RoleAdmin, roleA)

	sa := newSession(f, g.ID, a.ID)
	require.NoError(t, sa.Open(context.Background()))
	_, err = sa.Invite(context.Background(), "b@uni.ac.uk")
	require.NoError(t, err)

	roleB, err := m.RoleOf(context.Background(), g.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, rolepolicy.RoleViewer, roleB)

	sb := newSession(f, g.ID, b.ID)
	require.NoError(t, sb.Open(context.Background()))
	_, err = sb.CreateTask(context.Background(), collab.TaskInput{Title: "hijack"})
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)

	task, err := sa.CreateTask(context.Background(), collab.TaskInput{Title: "Submit report"})
	require.NoError(t, err)

	va, err := sa.View()
	require.NoError(t, err)
	require.NotEmpty(t, va.Tasks)
	assert.Equal(t, task.ID, va.Tasks[0].ID)
	assert.Len(t, va.Members, 2)

	require.NoError(t, sb.Open(context.Background()), "refresh")
	vb, err := sb.View()
	require.NoError(t, err)
	require.NotEmpty(t, vb.Tasks)
	assert.Equal(t, task.ID, vb.Tasks[0].ID)
}
