// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"

	"github.com/zm10123/taskhive/internal/app/system/normalize"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is a read-only view over the profiles the auth system maintains.
// Invitation lookups resolve an email to a user here.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// GetByEmail resolves an email case-insensitively via the email_ci
// field. Returns mongo.ErrNoDocuments when no profile matches.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&p)
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
