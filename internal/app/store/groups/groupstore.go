// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a new group. The caller becomes the owner via the collab
// package's bootstrap step; this store only writes the group document.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = strings.TrimSpace(g.Name)
	g.NameCI = text.Fold(g.Name)
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo changes a group's name and/or description. An empty name is
// ignored; the description can be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc string) error {
	set := bson.M{
		"description": desc,
		"updated_at":  time.Now().UTC(),
	}
	if strings.TrimSpace(name) != "" {
		set["name"] = strings.TrimSpace(name)
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
