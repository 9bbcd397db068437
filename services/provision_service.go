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

// ProvisionService bootstraps a first-time account: user row, its
// single workspace, a default public link, and the owner grant, all
// inside one transaction so no caller ever observes a half-provisioned
// account.
type ProvisionService struct {
	db                   *mongo.Database
	userCollection       *mongo.Collection
	workspaceCollection  *mongo.Collection
	linkCollection       *mongo.Collection
	permissionCollection *mongo.Collection
	linkService          *LinkService
	identity             *IdentityService
	attempts             int
}

type ProvisionResult struct {
	User      *models.User      `json:"user"`
	Workspace *models.Workspace `json:"workspace"`
	Link      *models.Link      `json:"link"`
	Created   bool              `json:"created"`
	// SyncWarning is set when provisioning succeeded but the username
	// could not be pushed back to the identity provider.
	SyncWarning string `json:"sync_warning,omitempty"`
}

func NewProvisionService(db *mongo.Database, linkService *LinkService, identity *IdentityService, attempts int) *ProvisionService {
	if attempts < 1 {
		attempts = 3
	}
	s := &ProvisionService{
		db:                   db,
		userCollection:       db.Collection("users"),
		workspaceCollection:  db.Collection("workspaces"),
		linkCollection:       db.Collection("links"),
		permissionCollection: db.Collection("permissions"),
		linkService:          linkService,
		identity:             identity,
		attempts:             attempts,
	}
	s.createIndexes()
	return s
}

func (s *ProvisionService) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_external_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_username_unique"),
		},
	}
	if _, err := s.userCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create user indexes: %v", err))
	}

	// One workspace per user.
	workspaceIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("workspace_user_unique"),
	}
	if _, err := s.workspaceCollection.Indexes().CreateOne(ctx, workspaceIndex); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create workspace index: %v", err))
	}
}

// Provision is idempotent on the external identity: a repeat call for
// an already-provisioned account returns the existing records with
// Created=false and performs no writes.
func (s *ProvisionService) Provision(ctx context.Context, profile IdentityProfile) (*ProvisionResult, error) {
	if existing, err := s.findExisting(ctx, profile.ExternalID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	username := profile.Username
	if username == "" {
		username = utils.SlugifyUsername(profile.Email)
	}

	var result *ProvisionResult
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		result, lastErr = s.provisionOnce(ctx, profile, username)
		if lastErr == nil {
			break
		}
		if lastErr == ErrConflict {
			// Another request won the race; hand back its records.
			if existing, err := s.findExisting(ctx, profile.ExternalID); err == nil && existing != nil {
				return existing, nil
			}
			return nil, ErrConflict
		}
		utils.LogWarning(fmt.Sprintf("provisioning attempt %d/%d failed: %v", attempt, s.attempts, lastErr))
		time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, lastErr)
	}

	// Best effort: a sync failure downgrades to a warning, never a
	// rollback of an already-committed account.
	if s.identity != nil {
		if err := s.identity.SyncUsername(ctx, profile.ExternalID, username); err != nil {
			utils.LogWarning(fmt.Sprintf("identity sync failed for %s: %v", profile.ExternalID, err))
			result.SyncWarning = "account created, but the username could not be synced to the identity provider"
		}
	}

	return result, nil
}

func (s *ProvisionService) provisionOnce(ctx context.Context, profile IdentityProfile, username string) (*ProvisionResult, error) {
	slug, err := s.availableSlug(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		ID:         primitive.NewObjectID(),
		ExternalID: profile.ExternalID,
		Email:      normalizeEmail(profile.Email),
		Username:   username,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		AvatarURL:  profile.AvatarURL,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	workspace := models.Workspace{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		Name:      fmt.Sprintf("%s's Workspace", username),
		CreatedAt: now,
		UpdatedAt: now,
	}
	link := models.Link{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspace.ID,
		Slug:        slug,
		Name:        "Personal Collection",
		IsPublic:    true,
		IsActive:    true,
		Config:      models.LinkConfig{RequireEmail: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ownerGrant := models.Permission{
		ID:         primitive.NewObjectID(),
		LinkID:     link.ID,
		Email:      user.Email,
		Role:       models.RoleOwner,
		Name:       username,
		Verified:   true,
		VerifiedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.userCollection.InsertOne(sc, user); err != nil {
			return nil, err
		}
		if _, err := s.workspaceCollection.InsertOne(sc, workspace); err != nil {
			return nil, err
		}
		if _, err := s.linkCollection.InsertOne(sc, link); err != nil {
			return nil, err
		}
		if _, err := s.permissionCollection.InsertOne(sc, ownerGrant); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return &ProvisionResult{
		User:      &user,
		Workspace: &workspace,
		Link:      &link,
		Created:   true,
	}, nil
}

func (s *ProvisionService) availableSlug(ctx context.Context, username string) (string, error) {
	base := utils.SlugifyUsername(username)
	slug := base
	for n := 1; n <= 50; n++ {
		available, err := s.linkService.IsSlugAvailable(ctx, slug, nil)
		if err != nil {
			return "", err
		}
		if available {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return "", ErrConflict
}

func (s *ProvisionService) findExisting(ctx context.Context, externalID string) (*ProvisionResult, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"external_id": externalID, "deleted_at": nil}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var workspace models.Workspace
	if err := s.workspaceCollection.FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&workspace); err != nil {
		return nil, fmt.Errorf("account %s has no workspace: %w", externalID, err)
	}

	var link models.Link
	if err := s.linkCollection.FindOne(ctx, bson.M{"workspace_id": workspace.ID}, options.FindOne().SetSort(bson.M{"created_at": 1})).Decode(&link); err != nil && err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := &ProvisionResult{User: &user, Workspace: &workspace, Created: false}
	if link.ID != primitive.NilObjectID {
		result.Link = &link
	}
	return result, nil
}
