package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// LinkService manages shareable collection links: slug allocation,
// activity toggling, per-link configuration and branding, and the
// cascade/detach cleanup when a link is removed.
type LinkService struct {
	db                  *mongo.Database
	linkCollection      *mongo.Collection
	userCollection      *mongo.Collection
	workspaceCollection *mongo.Collection
}

func NewLinkService(db *mongo.Database) *LinkService {
	s := &LinkService{
		db:                  db,
		linkCollection:      db.Collection("links"),
		userCollection:      db.Collection("users"),
		workspaceCollection: db.Collection("workspaces"),
	}
	s.createIndexes()
	return s
}

func (s *LinkService) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			// Slugs are a global namespace across all workspaces.
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("link_slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("link_workspace_index"),
		},
	}

	if _, err := s.linkCollection.Indexes().CreateMany(ctx, indexes); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create link indexes: %v", err))
	}
}

type CreateLinkRequest struct {
	WorkspaceID primitive.ObjectID
	Slug        string
	Name        string
	IsPublic    bool
	Config      models.LinkConfig
}

func (s *LinkService) CreateLink(ctx context.Context, req CreateLinkRequest) (*models.Link, error) {
	if err := utils.ValidateSlug(req.Slug); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Name == "" {
		req.Name = req.Slug
	}

	now := time.Now()
	link := models.Link{
		ID:          primitive.NewObjectID(),
		WorkspaceID: req.WorkspaceID,
		Slug:        req.Slug,
		Name:        req.Name,
		IsPublic:    req.IsPublic,
		IsActive:    true,
		Config:      req.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.linkCollection.InsertOne(ctx, link); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return &link, nil
}

// IsSlugAvailable checks global availability; excludeID lets a link
// keep its own slug through an edit round-trip.
func (s *LinkService) IsSlugAvailable(ctx context.Context, slug string, excludeID *primitive.ObjectID) (bool, error) {
	if err := utils.ValidateSlug(slug); err != nil {
		return false, nil
	}

	filter := bson.M{"slug": slug}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := s.linkCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check slug availability: %w", err)
	}
	return count == 0, nil
}

func (s *LinkService) GetLink(ctx context.Context, workspaceID, linkID primitive.ObjectID) (*models.Link, error) {
	var link models.Link
	err := s.linkCollection.FindOne(ctx, bson.M{
		"_id":          linkID,
		"workspace_id": workspaceID,
	}).Decode(&link)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &link, nil
}

func (s *LinkService) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	var link models.Link
	err := s.linkCollection.FindOne(ctx, bson.M{"slug": slug}).Decode(&link)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &link, nil
}

func (s *LinkService) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Link, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.linkCollection.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []models.Link
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode links: %w", err)
	}

	return links, nil
}

func (s *LinkService) UpdateSlug(ctx context.Context, workspaceID, linkID primitive.ObjectID, newSlug string) error {
	if err := utils.ValidateSlug(newSlug); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.GetLink(ctx, workspaceID, linkID); err != nil {
		return err
	}

	_, err := s.linkCollection.UpdateOne(ctx, bson.M{"_id": linkID}, bson.M{
		"$set": bson.M{"slug": newSlug, "updated_at": time.Now()},
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to update slug: %w", err)
	}
	return nil
}

// SetActive pauses or resumes a link. A paused link rejects uploads but
// keeps its content and permissions intact.
func (s *LinkService) SetActive(ctx context.Context, workspaceID, linkID primitive.ObjectID, active bool) error {
	result, err := s.linkCollection.UpdateOne(ctx,
		bson.M{"_id": linkID, "workspace_id": workspaceID},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update link state: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkConfigPatch carries only the fields the caller wants changed.
type LinkConfigPatch struct {
	Name           *string `json:"name,omitempty"`
	IsPublic       *bool   `json:"is_public,omitempty"`
	WelcomeMessage *string `json:"welcome_message,omitempty"`
	RequireEmail   *bool   `json:"require_email,omitempty"`
	RequireName    *bool   `json:"require_name,omitempty"`
	AllowFolders   *bool   `json:"allow_folders,omitempty"`
}

func (s *LinkService) UpdateConfig(ctx context.Context, workspaceID, linkID primitive.ObjectID, patch LinkConfigPatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.IsPublic != nil {
		set["is_public"] = *patch.IsPublic
	}
	if patch.WelcomeMessage != nil {
		set["config.welcome_message"] = *patch.WelcomeMessage
	}
	if patch.RequireEmail != nil {
		set["config.require_email"] = *patch.RequireEmail
	}
	if patch.RequireName != nil {
		set["config.require_name"] = *patch.RequireName
	}
	if patch.AllowFolders != nil {
		set["config.allow_folders"] = *patch.AllowFolders
	}

	result, err := s.linkCollection.UpdateOne(ctx,
		bson.M{"_id": linkID, "workspace_id": workspaceID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update link config: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type LinkBrandingPatch struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	AccentColor *string `json:"accent_color,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
}

func (s *LinkService) UpdateBranding(ctx context.Context, workspaceID, linkID primitive.ObjectID, patch LinkBrandingPatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.Enabled != nil {
		set["branding.enabled"] = *patch.Enabled
	}
	if patch.AccentColor != nil {
		set["branding.accent_color"] = *patch.AccentColor
	}
	if patch.LogoURL != nil {
		set["branding.logo_url"] = *patch.LogoURL
	}

	result, err := s.linkCollection.UpdateOne(ctx,
		bson.M{"_id": linkID, "workspace_id": workspaceID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update link branding: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLink removes a link in one transaction: its permissions go with
// it, while folders and files it collected stay in the workspace with
// their link reference cleared.
func (s *LinkService) DeleteLink(ctx context.Context, workspaceID, linkID primitive.ObjectID) error {
	if _, err := s.GetLink(ctx, workspaceID, linkID); err != nil {
		return err
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := applyDeletionPolicies(sc, s.db, models.EntityLink, linkID); err != nil {
			return nil, err
		}
		if _, err := s.linkCollection.DeleteOne(sc, bson.M{"_id": linkID}); err != nil {
			return nil, fmt.Errorf("failed to delete link: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	return nil
}

// ResolveUpload maps a public upload address {username}/{slug} to its
// link, verifying the slug actually belongs to that user's workspace.
func (s *LinkService) ResolveUpload(ctx context.Context, username, slug string) (*models.Link, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{
		"username":   username,
		"is_active":  true,
		"deleted_at": nil,
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var workspace models.Workspace
	err = s.workspaceCollection.FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&workspace)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	link, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if link.WorkspaceID != workspace.ID {
		return nil, ErrNotFound
	}

	return link, nil
}
