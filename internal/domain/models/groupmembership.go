// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership status values.
const (
	MembershipActive  = "active"
	MembershipRemoved = "removed"
)

// GroupMembership is the authoritative join between users and groups.
// At most one *active* document per (group_id, user_id); the partial
// unique index in system/indexes owns that invariant. Role is a scalar
// ("admin"|"editor"|"viewer"). Memberships are never hard-deleted; a
// removal is a status transition to "removed".
type GroupMembership struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID  `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Role      string              `bson:"role" json:"role"`
	Status    string              `bson:"status" json:"status"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
