package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link is a shareable endpoint: conceptually a root-level folder that
// external contributors reach at {username}/{slug}. The slug is unique
// across all workspaces because it forms part of a public URL path.
type Link struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Slug        string             `bson:"slug" json:"slug"`
	Name        string             `bson:"name" json:"name"`
	IsPublic    bool               `bson:"is_public" json:"is_public"` // public = anyone may contribute
	IsActive    bool               `bson:"is_active" json:"is_active"` // paused links keep content and permissions
	Config      LinkConfig         `bson:"config" json:"config"`
	Branding    LinkBranding       `bson:"branding" json:"branding"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// LinkConfig customizes the public upload page.
type LinkConfig struct {
	WelcomeMessage string `bson:"welcome_message,omitempty" json:"welcome_message,omitempty"`
	RequireEmail   bool   `bson:"require_email" json:"require_email"`
	RequireName    bool   `bson:"require_name" json:"require_name"`
	AllowFolders   bool   `bson:"allow_folders" json:"allow_folders"`
}

type LinkBranding struct {
	Enabled     bool   `bson:"enabled" json:"enabled"`
	AccentColor string `bson:"accent_color,omitempty" json:"accent_color,omitempty"`
	LogoURL     string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
}
