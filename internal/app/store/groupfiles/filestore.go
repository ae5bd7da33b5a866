// internal/app/store/groupfiles/filestore.go
package filestore

import (
	"context"
	"time"

	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the metadata rows for group file attachments. A file
// "exists" iff its row exists here; the blob itself lives in object
// storage and is committed separately.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_files")}
}

// Insert records a file's metadata after its blob has been written.
func (s *Store) Insert(ctx context.Context, f models.GroupFile) (models.GroupFile, error) {
	f.ID = primitive.NewObjectID()
	f.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.GroupFile{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupFile, error) {
	var f models.GroupFile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.GroupFile{}, err
	}
	return f, nil
}

// ListByGroup returns a group's file metadata newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupFile, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupFile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the metadata row. This is the authoritative half of a
// file deletion; the blob may already be gone or may be left orphaned.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
