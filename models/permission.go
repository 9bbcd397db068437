package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles ordered by privilege: owner > editor > uploader.
const (
	RoleOwner    = "owner"
	RoleEditor   = "editor"
	RoleUploader = "uploader"
)

// Permission grants an email address a role on one link. At most one row
// exists per (link, email) pair. The stored role and the verified flag
// are kept separate so a pending editor promotion stays auditable.
type Permission struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LinkID           primitive.ObjectID `bson:"link_id" json:"link_id"`
	Email            string             `bson:"email" json:"email"`
	Role             string             `bson:"role" json:"role"`
	Name             string             `bson:"name,omitempty" json:"name,omitempty"`
	Verified         bool               `bson:"verified" json:"verified"`
	VerifiedAt       *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	VerificationCode string             `bson:"verification_code,omitempty" json:"-"`
	CodeExpiresAt    *time.Time         `bson:"code_expires_at,omitempty" json:"-"`
	LastActivityAt   *time.Time         `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

var roleLevels = map[string]int{
	RoleUploader: 1,
	RoleEditor:   2,
	RoleOwner:    3,
}

// RoleLevel returns the privilege rank of a role, 0 for unknown roles.
func RoleLevel(role string) int {
	return roleLevels[role]
}

// EffectiveRole is the role actually enforced at authorization time. An
// editor grant that has not completed code verification acts as uploader.
func (p *Permission) EffectiveRole() string {
	if p.Role == RoleEditor && !p.Verified {
		return RoleUploader
	}
	return p.Role
}

// HasAtLeast reports whether the effective role meets the required one.
func (p *Permission) HasAtLeast(required string) bool {
	return RoleLevel(p.EffectiveRole()) >= RoleLevel(required) && RoleLevel(required) > 0
}
