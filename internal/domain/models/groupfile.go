// internal/domain/models/groupfile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupFile is the metadata row for a file shared with a group.
//
// FilePath is the blob-storage key, "{group_id}/{unique suffix}_{name}".
// The blob and this row are committed independently: an upload writes the
// blob first, a delete removes the blob first. Either half can be orphaned
// by a partial failure; the metadata row is the authoritative half (a file
// without a row is invisible, a row without a blob still lists).
type GroupFile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`

	FileName string `bson:"file_name" json:"file_name"`
	FilePath string `bson:"file_path" json:"file_path"`
	FileSize int64  `bson:"file_size" json:"file_size"`
	MimeType string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
