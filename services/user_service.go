package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// UserService reads and maintains account records. Account creation
// itself belongs to ProvisionService.
type UserService struct {
	db                  *mongo.Database
	userCollection      *mongo.Collection
	workspaceCollection *mongo.Collection
	fileCollection      *mongo.Collection
	store               BlobStore
}

func NewUserService(db *mongo.Database, store BlobStore) *UserService {
	return &UserService{
		db:                  db,
		userCollection:      db.Collection("users"),
		workspaceCollection: db.Collection("workspaces"),
		fileCollection:      db.Collection("files"),
		store:               store,
	}
}

func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{
		"external_id": externalID,
		"is_active":   true,
		"deleted_at":  nil,
	}).Decode(&user)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
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

	return &user, nil
}

func (s *UserService) GetWorkspace(ctx context.Context, userID primitive.ObjectID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.workspaceCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&workspace)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &workspace, nil
}

type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.AvatarURL != nil {
		set["avatar_url"] = *patch.AvatarURL
	}

	result, err := s.userCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount tears down everything an account owns. Storage objects
// go first: if any payload cannot be removed, the account stays intact
// rather than leaving unreferenced bytes behind.
func (s *UserService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	workspace, err := s.GetWorkspace(ctx, userID)
	if err != nil && err != ErrNotFound {
		return err
	}

	if workspace != nil {
		cursor, err := s.fileCollection.Find(ctx, bson.M{"workspace_id": workspace.ID})
		if err != nil {
			return fmt.Errorf("failed to enumerate files: %w", err)
		}
		var files []models.File
		if err = cursor.All(ctx, &files); err != nil {
			return fmt.Errorf("failed to decode files: %w", err)
		}
		for _, f := range files {
			if err := s.store.Delete(ctx, f.StorageKey); err != nil {
				return fmt.Errorf("aborting account delete, payload %s not removed: %w", f.ID.Hex(), err)
			}
		}
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := applyDeletionPolicies(sc, s.db, models.EntityUser, userID); err != nil {
			return nil, err
		}
		// Soft delete keeps the email and username reserved.
		now := time.Now()
		if _, err := s.userCollection.UpdateOne(sc, bson.M{"_id": userID}, bson.M{
			"$set": bson.M{"is_active": false, "deleted_at": now, "updated_at": now},
		}); err != nil {
			return nil, fmt.Errorf("failed to deactivate user: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	utils.LogInfo(fmt.Sprintf("account %s deleted", userID.Hex()))
	return nil
}
