// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/zm10123/taskhive/internal/app/policy/rolepolicy"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var errBadRole = errors.New(`role must be "admin", "editor" or "viewer"`)

// ErrDuplicateMembership is returned when an insert collides with the
// partial unique index on active (group_id, user_id). The index, not the
// caller's pre-check, is the authority for the invariant.
var ErrDuplicateMembership = errors.New("user is already an active member of this group")

// Insert creates a membership document. Status defaults to active.
func (s *Store) Insert(ctx context.Context, m models.GroupMembership) (models.GroupMembership, error) {
	if !rolepolicy.IsValid(rolepolicy.Parse(m.Role)) {
		return models.GroupMembership{}, errBadRole
	}
	m.Role = string(rolepolicy.Parse(m.Role))
	if m.Status == "" {
		m.Status = models.MembershipActive
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return m, nil
}

// FindActive returns the active membership for (groupID, userID), or
// mongo.ErrNoDocuments when the user has none. Absence is a normal
// outcome; callers translate it to "no role", not an error page.
func (s *Store) FindActive(ctx context.Context, groupID, userID primitive.ObjectID) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := s.c.FindOne(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"status":   models.MembershipActive,
	}).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountActive returns the number of active memberships in a group.
func (s *Store) CountActive(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"status":   models.MembershipActive,
	})
}

// MemberEntry is an active membership joined with the minimal profile
// projection the member list needs.
type MemberEntry struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	GroupID   primitive.ObjectID  `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Role      string              `bson:"role" json:"role"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	Email     string              `bson:"email" json:"email"`
	FullName  string              `bson:"full_name" json:"full_name"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// ListActiveWithProfiles returns the active memberships of a group joined
// with profiles(email, full_name). No defined order.
func (s *Store) ListActiveWithProfiles(ctx context.Context, groupID primitive.ObjectID) ([]MemberEntry, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"group_id": groupID,
			"status":   models.MembershipActive,
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "profiles",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "profile",
		}}},
		bson.D{{Key: "$unwind", Value: "$profile"}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"email":     "$profile.email",
			"full_name": "$profile.full_name",
		}}},
		bson.D{{Key: "$project", Value: bson.M{"profile": 0}}},
	}

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []MemberEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupWithRole pairs a group document with the caller's role in it.
type GroupWithRole struct {
	Group models.Group `bson:"group" json:"group"`
	Role  string       `bson:"role" json:"role"`
}

// ListGroupsForUser returns the groups where the user holds an active
// membership, each carrying that user's role.
func (s *Store) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]GroupWithRole, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"user_id": userID,
			"status":  models.MembershipActive,
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "groups",
			"localField":   "group_id",
			"foreignField": "_id",
			"as":           "group",
		}}},
		bson.D{{Key: "$unwind", Value: "$group"}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "group.created_at", Value: -1}}}},
		bson.D{{Key: "$project", Value: bson.M{"group": 1, "role": 1}}},
	}

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []GroupWithRole
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
