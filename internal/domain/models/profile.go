// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the minimal user record this subsystem reads. Profiles are
// written by the external auth system; from here the collection is
// read-only (invite-by-email lookups and member list joins).
type Profile struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Email    string             `bson:"email" json:"email"`
	EmailCI  string             `bson:"email_ci" json:"email_ci"` // lowercase, trimmed
	FullName string             `bson:"full_name,omitempty" json:"full_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
