// internal/app/collab/stores.go
package collab

import (
	"context"
	"io"

	"github.com/dalemusser/waffle/pantry/storage"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The persistence contract this package consumes, declared here so the
// Mongo stores satisfy it in production and in-memory fakes satisfy it
// in tests. Lookup misses are mongo.ErrNoDocuments, matching the stores.

type GroupStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	Create(ctx context.Context, g models.Group) (models.Group, error)
}

type MembershipStore interface {
	Insert(ctx context.Context, m models.GroupMembership) (models.GroupMembership, error)
	FindActive(ctx context.Context, groupID, userID primitive.ObjectID) (*models.GroupMembership, error)
	ListActiveWithProfiles(ctx context.Context, groupID primitive.ObjectID) ([]membershipstore.MemberEntry, error)
	ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]membershipstore.GroupWithRole, error)
}

type ProfileStore interface {
	GetByEmail(ctx context.Context, email string) (models.Profile, error)
}

type TaskStore interface {
	Insert(ctx context.Context, t models.GroupTask) (models.GroupTask, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupTask, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupTask, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
}

type FileStore interface {
	Insert(ctx context.Context, f models.GroupFile) (models.GroupFile, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupFile, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupFile, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// BlobStore is the slice of the storage backend file operations use.
// *storage.Local and the S3 backend both satisfy it.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	Delete(ctx context.Context, path string) error
}
