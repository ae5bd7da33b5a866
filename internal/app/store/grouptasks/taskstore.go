// internal/app/store/grouptasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var errEmptyTitle = errors.New("task title must not be empty")

// Insert creates a task in a group. Status defaults to pending and
// priority to medium when unset.
func (s *Store) Insert(ctx context.Context, t models.GroupTask) (models.GroupTask, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.GroupTask{}, errEmptyTitle
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.GroupTask{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupTask, error) {
	var t models.GroupTask
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.GroupTask{}, err
	}
	return t, nil
}

// ListByGroup returns a group's tasks newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupTask, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupTask
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus flips a task to the given status. Returns
// mongo.ErrNoDocuments when the task does not exist.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.TaskPending && status != models.TaskCompleted {
		return errors.New(`task status must be "pending" or "completed"`)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
