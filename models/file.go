package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scan states written back by the external virus-scanning collaborator.
const (
	ScanStatusPending  = "pending"
	ScanStatusClean    = "clean"
	ScanStatusInfected = "infected"
)

// File is the leaf content record. The binary payload lives in object
// storage under StorageKey; this row carries metadata only, so moving a
// file between folders never touches the store.
type File struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID     primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	ParentID        *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // nil = workspace root
	LinkID          *primitive.ObjectID `bson:"link_id,omitempty" json:"link_id,omitempty"`
	Name            string              `bson:"name" json:"name"`
	Size            int64               `bson:"size" json:"size"`
	MimeType        string              `bson:"mime_type" json:"mime_type"`
	StorageKey      string              `bson:"storage_key" json:"-"`
	SHA1Hash        string              `bson:"sha1_hash,omitempty" json:"sha1_hash,omitempty"`
	UploaderEmail   string              `bson:"uploader_email,omitempty" json:"uploader_email,omitempty"`
	UploaderName    string              `bson:"uploader_name,omitempty" json:"uploader_name,omitempty"`
	UploaderMessage string              `bson:"uploader_message,omitempty" json:"uploader_message,omitempty"`
	ScanStatus      string              `bson:"scan_status" json:"scan_status"`
	ThumbnailKey    string              `bson:"thumbnail_key,omitempty" json:"thumbnail_key,omitempty"`
	UploadedAt      time.Time           `bson:"uploaded_at" json:"uploaded_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}
