// internal/app/features/groups/handler.go
package groups

import (
	"github.com/zm10123/taskhive/internal/app/collab"
	groupstore "github.com/zm10123/taskhive/internal/app/store/groups"
	filestore "github.com/zm10123/taskhive/internal/app/store/groupfiles"
	taskstore "github.com/zm10123/taskhive/internal/app/store/grouptasks"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	profilestore "github.com/zm10123/taskhive/internal/app/store/profiles"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
// Stores are built per request from the database handle, matching how
// the rest of the app treats collections.
type Handler struct {
	DB      *mongo.Database
	Storage collab.BlobStore
	Log     *zap.Logger
}

// NewHandler constructs a groups Handler. It is typically called from
// the bootstrap BuildHandler function, where the application's DB,
// blob storage, and logger are already initialized.
func NewHandler(db *mongo.Database, storage collab.BlobStore, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Storage: storage,
		Log:     logger,
	}
}

func (h *Handler) manager() *collab.Manager {
	return collab.NewManager(
		groupstore.New(h.DB),
		membershipstore.New(h.DB),
		profilestore.New(h.DB),
		h.Log,
	)
}

// session builds the per-request collaboration session for one group on
// behalf of one user. Every mutation below goes through its role gate,
// so authorization is enforced here against the stored membership, not
// against anything the client claims.
func (h *Handler) session(groupID, userID primitive.ObjectID) *collab.Session {
	return collab.NewSession(collab.SessionDeps{
		Manager: h.manager(),
		Tasks:   taskstore.New(h.DB),
		Files:   filestore.New(h.DB),
		Blobs:   h.Storage,
		Log:     h.Log,
	}, groupID, userID)
}
