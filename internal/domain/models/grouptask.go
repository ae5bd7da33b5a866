// internal/domain/models/grouptask.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status and priority values.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// GroupTask is a task scoped to a group. It shares the tasks collection
// with personal tasks; group tasks carry a group_id and are visible to
// every active member of that group regardless of who created them.
type GroupTask struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	CreatorID primitive.ObjectID `bson:"user_id" json:"creator_id"`

	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Status      string     `bson:"status" json:"status"`
	Priority    string     `bson:"priority" json:"priority"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
