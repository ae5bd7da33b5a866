// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a shared collaboration unit containing tasks and files
// visible to its members.
//
// NOTE:
//   - Membership is not embedded on Group. All membership lives in the
//     group_memberships collection.
//   - Groups are never deleted in the current scope; name/description may
//     change after creation, nothing else does.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
