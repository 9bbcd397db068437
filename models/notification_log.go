package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationLog records outbound email deliveries (verification codes),
// keyed by the permission row that triggered them.
type NotificationLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PermissionID primitive.ObjectID `bson:"permission_id" json:"permission_id"`
	Email        string             `bson:"email" json:"email"`
	Type         string             `bson:"type" json:"type"` // "verification_code"
	Subject      string             `bson:"subject" json:"subject"`
	SentAt       time.Time          `bson:"sent_at" json:"sent_at"`
}
