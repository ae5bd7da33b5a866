package collab_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zm10123/taskhive/internal/app/collab"
	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	"github.com/zm10123/taskhive/internal/testutil"
	"go.uber.org/zap"
)

func newManager(f *testutil.Fakes) *collab.Manager {
	return collab.NewManager(f.Groups, f.Memberships, f.Profiles, zap.NewNop())
}

func TestCreateGroup_BootstrapsOwnerAdmin(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	creator := f.DB.SeedProfile("a@uni.ac.uk", "User A")

	g, err := m.CreateGroup(context.Background(), "CS101 Team", "", creator.ID)
	require.NoError(t, err)

	role, err := m.RoleOf(context.Background(), g.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, rolepolicy.RoleAdmin, role)

	active := f.DB.ActiveMemberships(g.ID, creator.ID)
	assert.Len(t, active, 1, "exactly one active membership for the creator")
}

func TestBootstrapOwner_IdempotentUnderRetry(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	creator := f.DB.SeedProfile("a@uni.ac.uk", "User A")

	g, err := m.CreateGroup(context.Background(), "CS101 Team", "", creator.ID)
	require.NoError(t, err)

	// A retried bootstrap must be a no-op success, not a duplicate.
	require.NoError(t, m.BootstrapOwner(context.Background(), g.ID, creator.ID))
	require.NoError(t, m.BootstrapOwner(context.Background(), g.ID, creator.ID))

	assert.Len(t, f.DB.ActiveMemberships(g.ID, creator.ID), 1)
}

func TestCreateGroup_BootstrapFailureLeavesGroup(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	creator := f.DB.SeedProfile("a@uni.ac.uk", "User A")

	boom := errors.New("storage down")
	f.Memberships.InsertErr = boom

	g, err := m.CreateGroup(context.Background(), "CS101 Team", "", creator.ID)
	require.ErrorIs(t, err, boom)

	// The group document stays for manual remediation; no silent rollback.
	f.Memberships.InsertErr = nil
	_, err = f.Groups.GetByID(context.Background(), g.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.DB.ActiveMemberships(g.ID, creator.ID))
}

func TestInvite_Succeeds(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	admin := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	invitee := f.DB.SeedProfile("b@uni.ac.uk", "User B")
	g := f.DB.SeedGroup("CS101 Team", admin.ID)
	f.DB.SeedMembership(g.ID, admin.ID, string(rolepolicy.RoleAdmin))

	mem, err := m.Invite(context.Background(), g.ID, admin.ID, "B@Uni.ac.uk")
	require.NoError(t, err)
	assert.Equal(t, string(rolepolicy.RoleViewer), mem.Role)
	assert.Equal(t, invitee.ID, mem.UserID)
	require.NotNil(t, mem.InvitedBy)
	assert.Equal(t, admin.ID, *mem.InvitedBy)
}

func TestInvite_UnknownEmail(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	admin := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	g := f.DB.SeedGroup("CS101 Team", admin.ID)
	f.DB.SeedMembership(g.ID, admin.ID, string(rolepolicy.RoleAdmin))

	_, err := m.Invite(context.Background(), g.ID, admin.ID, "nobody@uni.ac.uk")
	assert.ErrorIs(t, err, collab.ErrInviteeNotFound)
}

func TestInvite_AlreadyMember(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	admin := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	invitee := f.DB.SeedProfile("b@uni.ac.uk", "User B")
	g := f.DB.SeedGroup("CS101 Team", admin.ID)
	f.DB.SeedMembership(g.ID, admin.ID, string(rolepolicy.RoleAdmin))
	f.DB.SeedMembership(g.ID, invitee.ID, string(rolepolicy.RoleViewer))

	_, err := m.Invite(context.Background(), g.ID, admin.ID, "b@uni.ac.uk")
	assert.ErrorIs(t, err, collab.ErrAlreadyMember)
	assert.Len(t, f.DB.ActiveMemberships(g.ID, invitee.ID), 1)
}

func TestInvite_RequiresAdmin(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	admin := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	editor := f.DB.SeedProfile("e@uni.ac.uk", "User E")
	outsider := f.DB.SeedProfile("x@uni.ac.uk", "User X")
	f.DB.SeedProfile("b@uni.ac.uk", "User B")
	g := f.DB.SeedGroup("CS101 Team", admin.ID)
	f.DB.SeedMembership(g.ID, admin.ID, string(rolepolicy.RoleAdmin))
	f.DB.SeedMembership(g.ID, editor.ID, string(rolepolicy.RoleEditor))

	_, err := m.Invite(context.Background(), g.ID, editor.ID, "b@uni.ac.uk")
	assert.ErrorIs(t, err, collab.ErrPermissionDenied)

	// Non-members must not learn the group exists.
	_, err = m.Invite(context.Background(), g.ID, outsider.ID, "b@uni.ac.uk")
	assert.ErrorIs(t, err, collab.ErrGroupNotFound)
}

// Two concurrent invites of the same email can both pass the pre-check,
// but the unique index rejects the loser. Documented outcome: exactly
// one membership and one rejection.
func TestInvite_ConcurrentDuplicateResolvesToRejection(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	admin := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	invitee := f.DB.SeedProfile("b@uni.ac.uk", "User B")
	g := f.DB.SeedGroup("CS101 Team", admin.ID)
	f.DB.SeedMembership(g.ID, admin.ID, string(rolepolicy.RoleAdmin))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Invite(context.Background(), g.ID, admin.ID, "b@uni.ac.uk")
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, collab.ErrAlreadyMember):
			rejected++
		default:
			t.Fatalf("unexpected invite error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one invite wins")
	assert.Equal(t, 1, rejected, "the loser is rejected, not silently duplicated")
	assert.Len(t, f.DB.ActiveMemberships(g.ID, invitee.ID), 1)
}

func TestRoleOf_NoMembershipIsNone(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	user := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	g := f.DB.SeedGroup("CS101 Team", user.ID)

	role, err := m.RoleOf(context.Background(), g.ID, user.ID)
	require.NoError(t, err, "absence of a membership is not an error")
	assert.Equal(t, rolepolicy.RoleNone, role)
}

func TestListGroupsFor_OnlyActiveMemberships(t *testing.T) {
	f := testutil.NewFakes()
	m := newManager(f)
	user := f.DB.SeedProfile("a@uni.ac.uk", "User A")
	other := f.DB.SeedProfile("b@uni.ac.uk", "User B")
	g1 := f.DB.SeedGroup("CS101 Team", user.ID)
	g2 := f.DB.SeedGroup("CS102 Team", other.ID)
	f.DB.SeedGroup("CS103 Team", other.ID)
	f.DB.SeedMembership(g1.ID, user.ID, string(rolepolicy.RoleAdmin))
	f.DB.SeedMembership(g2.ID, user.ID, string(rolepolicy.RoleViewer))

	got, err := m.ListGroupsFor(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	roles := map[string]string{}
	for _, gr := range got {
		roles[gr.Group.Name] = gr.Role
	}
	assert.Equal(t, string(rolepolicy.RoleAdmin), roles["CS101 Team"])
	assert.Equal(t, string(rolepolicy.RoleViewer), roles["CS102 Team"])
}
