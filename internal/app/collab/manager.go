// internal/app/collab/manager.go
package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Manager owns the group membership lifecycle: creation bootstrap,
// invitations, member listing, and role lookup.
type Manager struct {
	groups      GroupStore
	memberships MembershipStore
	profiles    ProfileStore
	log         *zap.Logger
}

func NewManager(groups GroupStore, memberships MembershipStore, profiles ProfileStore, log *zap.Logger) *Manager {
	return &Manager{groups: groups, memberships: memberships, profiles: profiles, log: log}
}

// CreateGroup inserts the group and bootstraps the creator's admin
// membership. If the bootstrap fails the group document is left in
// place and the error is returned; there is no cross-collection
// transaction to roll it back with.
func (m *Manager) CreateGroup(ctx context.Context, name, description string, creator primitive.ObjectID) (models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return models.Group{}, errors.New("group name must not be empty")
	}

	g, err := m.groups.Create(ctx, models.Group{
		Name:        name,
		Description: description,
		CreatedBy:   creator,
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("creating group: %w", err)
	}

	if err := m.BootstrapOwner(ctx, g.ID, creator); err != nil {
		m.log.Error("group created but owner membership failed",
			zap.String("group_id", g.ID.Hex()),
			zap.String("user_id", creator.Hex()),
			zap.Error(err))
		return g, fmt.Errorf("creating owner membership: %w", err)
	}
	return g, nil
}

// BootstrapOwner creates the active admin membership for a group's
// creator. A duplicate-key collision means the membership already
// exists, which makes a retried bootstrap a no-op success.
func (m *Manager) BootstrapOwner(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := m.memberships.Insert(ctx, models.GroupMembership{
		GroupID: groupID,
		UserID:  userID,
		Role:    string(rolepolicy.RoleAdmin),
	})
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		return nil
	}
	return err
}

// Invite adds the profile matching email as an active viewer of the
// group. The actor must hold the admin role; non-members get
// ErrGroupNotFound so they cannot probe for groups they cannot see.
// Two racing invites of the same email both pass the pre-check, but the
// unique index rejects the loser, which also surfaces as
// ErrAlreadyMember.
func (m *Manager) Invite(ctx context.Context, groupID, actorID primitive.ObjectID, email string) (models.GroupMembership, error) {
	role, err := m.RoleOf(ctx, groupID, actorID)
	if err != nil {
		return models.GroupMembership{}, err
	}
	if role == rolepolicy.RoleNone {
		return models.GroupMembership{}, ErrGroupNotFound
	}
	if !rolepolicy.CanManageMembers(role) {
		return models.GroupMembership{}, ErrPermissionDenied
	}

	p, err := m.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupMembership{}, ErrInviteeNotFound
		}
		return models.GroupMembership{}, fmt.Errorf("looking up invitee: %w", err)
	}

	if _, err := m.memberships.FindActive(ctx, groupID, p.ID); err == nil {
		return models.GroupMembership{}, ErrAlreadyMember
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.GroupMembership{}, fmt.Errorf("checking existing membership: %w", err)
	}

	mem, err := m.memberships.Insert(ctx, models.GroupMembership{
		GroupID:   groupID,
		UserID:    p.ID,
		Role:      string(rolepolicy.RoleViewer),
		InvitedBy: &actorID,
	})
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		return models.GroupMembership{}, ErrAlreadyMember
	}
	if err != nil {
		return models.GroupMembership{}, err
	}
	return mem, nil
}

// ListActive returns a group's active members with their profile
// projection. Order is not defined.
func (m *Manager) ListActive(ctx context.Context, groupID primitive.ObjectID) ([]membershipstore.MemberEntry, error) {
	return m.memberships.ListActiveWithProfiles(ctx, groupID)
}

// RoleOf returns the user's role in the group, or RoleNone when no
// active membership exists. Absence is not an error.
func (m *Manager) RoleOf(ctx context.Context, groupID, userID primitive.ObjectID) (rolepolicy.Role, error) {
	mem, err := m.memberships.FindActive(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rolepolicy.RoleNone, nil
		}
		return rolepolicy.RoleNone, err
	}
	return rolepolicy.Parse(mem.Role), nil
}

// ListGroupsFor returns the groups the user actively belongs to, each
// with that user's role, newest group first.
func (m *Manager) ListGroupsFor(ctx context.Context, userID primitive.ObjectID) ([]membershipstore.GroupWithRole, error) {
	return m.memberships.ListGroupsForUser(ctx, userID)
}
