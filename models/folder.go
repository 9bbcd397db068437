package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFolderDepth is the maximum number of ancestors a folder may have.
// A root folder has depth 0.
const MaxFolderDepth = 20

// Folder is a node in the self-referential tree. Only the parent pointer
// is stored; children, depth, and ancestor paths are derived at query
// time so that subtree moves never leave materialized fields stale.
type Folder struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID   primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	LinkID        *primitive.ObjectID `bson:"link_id,omitempty" json:"link_id,omitempty"`     // nil = personal folder
	ParentID      *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // nil = root level
	Name          string              `bson:"name" json:"name"`
	UploaderEmail string              `bson:"uploader_email,omitempty" json:"uploader_email,omitempty"` // set when created by an external contributor
	UploaderName  string              `bson:"uploader_name,omitempty" json:"uploader_name,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}
