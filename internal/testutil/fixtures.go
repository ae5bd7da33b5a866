// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/zm10123/taskhive/internal/app/system/normalize"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile inserts a profile row the way the external auth system
// would, and returns it with its generated ID.
func (f *Fixtures) CreateProfile(ctx context.Context, email, fullName string) models.Profile {
	f.t.Helper()

	p := models.Profile{
		ID:        primitive.NewObjectID(),
		Email:     email,
		EmailCI:   normalize.Email(email),
		FullName:  fullName,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateGroup inserts a group created by the given user.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, createdBy primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateMembership inserts an active membership with the given role.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		Status:    models.MembershipActive,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateGroupTask inserts a pending medium-priority task in the group.
func (f *Fixtures) CreateGroupTask(ctx context.Context, groupID, creatorID primitive.ObjectID, title string) models.GroupTask {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.GroupTask{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		CreatorID: creatorID,
		Title:     title,
		Status:    models.TaskPending,
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateGroupFile inserts a file metadata row.
func (f *Fixtures) CreateGroupFile(ctx context.Context, groupID, uploadedBy primitive.ObjectID, fileName string) models.GroupFile {
	f.t.Helper()

	gf := models.GroupFile{
		ID:         primitive.NewObjectID(),
		GroupID:    groupID,
		UploadedBy: uploadedBy,
		FileName:   fileName,
		FilePath:   groupID.Hex() + "/test_" + fileName,
		FileSize:   42,
		MimeType:   "application/octet-stream",
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_files").InsertOne(ctx, gf); err != nil {
		f.t.Fatalf("failed to create test file: %v", err)
	}
	return gf
}
