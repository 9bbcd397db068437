package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// PermissionService is the per-link access gatekeeper. Identity is an
// email address, not an account: contributors never register, they are
// known by what they typed into the upload form.
type PermissionService struct {
	permissionCollection *mongo.Collection
	notifications        *NotificationService
	codeTTL              time.Duration
}

func NewPermissionService(db *mongo.Database, notifications *NotificationService, codeTTL time.Duration) *PermissionService {
	s := &PermissionService{
		permissionCollection: db.Collection("permissions"),
		notifications:        notifications,
		codeTTL:              codeTTL,
	}
	s.createIndexes()
	return s
}

func (s *PermissionService) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			// One grant per email per link.
			Keys: bson.D{
				{Key: "link_id", Value: 1},
				{Key: "email", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("link_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "code_expires_at", Value: 1}},
			Options: options.Index().SetName("code_expiry_index").SetSparse(true),
		},
	}

	if _, err := s.permissionCollection.Indexes().CreateMany(ctx, indexes); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create permission indexes: %v", err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreatePermission grants a role directly. Owners are trusted on
// creation; everyone else starts unverified.
func (s *PermissionService) CreatePermission(ctx context.Context, linkID primitive.ObjectID, email, role, name string) (*models.Permission, error) {
	email = normalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := utils.ValidatePermissionRole(role); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	perm := models.Permission{
		ID:        primitive.NewObjectID(),
		LinkID:    linkID,
		Email:     email,
		Role:      role,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == models.RoleOwner {
		perm.Verified = true
		perm.VerifiedAt = &now
	}

	if _, err := s.permissionCollection.InsertOne(ctx, perm); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	return &perm, nil
}

// EnsureUploader grants the uploader role if no grant exists yet, and
// leaves any existing grant untouched. Safe to call concurrently for
// the same email; the unique index collapses the race to one document.
func (s *PermissionService) EnsureUploader(ctx context.Context, linkID primitive.ObjectID, email, name string) (*models.Permission, error) {
	email = normalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	filter := bson.M{"link_id": linkID, "email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"link_id":    linkID,
			"email":      email,
			"role":       models.RoleUploader,
			"name":       name,
			"verified":   false,
			"created_at": now,
			"updated_at": now,
		},
		"$set": bson.M{"last_activity_at": now},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var perm models.Permission
	err := s.permissionCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&perm)
	if isDuplicateKey(err) {
		// Two first contributions raced and both upserts tried to
		// insert; the loser retries against the row the winner created.
		err = s.permissionCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&perm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure uploader grant: %w", err)
	}

	return &perm, nil
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// PromoteToEditor raises a grant to editor and emails a verification
// code. The editor role stays dormant until the code is confirmed.
func (s *PermissionService) PromoteToEditor(ctx context.Context, linkID primitive.ObjectID, email string) (*models.Permission, error) {
	email = normalizeEmail(email)

	perm, err := s.getByEmail(ctx, linkID, email)
	if err != nil {
		return nil, err
	}
	if perm.Role == models.RoleOwner {
		return nil, ErrConflict
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.codeTTL)
	_, err = s.permissionCollection.UpdateOne(ctx, bson.M{"_id": perm.ID}, bson.M{
		"$set": bson.M{
			"role":              models.RoleEditor,
			"verified":          false,
			"verification_code": code,
			"code_expires_at":   expiresAt,
			"updated_at":        now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to promote permission: %w", err)
	}

	if s.notifications != nil {
		if err := s.notifications.SendVerificationCode(ctx, perm.ID, email, code, expiresAt); err != nil {
			utils.LogError("failed to send verification code", err)
		}
	}

	perm.Role = models.RoleEditor
	perm.Verified = false
	perm.VerificationCode = code
	perm.CodeExpiresAt = &expiresAt
	return perm, nil
}

// VerifyAndActivate confirms a pending verification code. Wrong or
// expired codes both come back as ErrInvalidCode; the caller learns
// nothing about which.
func (s *PermissionService) VerifyAndActivate(ctx context.Context, linkID primitive.ObjectID, email, code string) error {
	email = normalizeEmail(email)

	perm, err := s.getByEmail(ctx, linkID, email)
	if err != nil {
		return err
	}

	if perm.VerificationCode == "" || perm.VerificationCode != code {
		return ErrInvalidCode
	}
	if perm.CodeExpiresAt == nil || time.Now().After(*perm.CodeExpiresAt) {
		return ErrInvalidCode
	}

	now := time.Now()
	_, err = s.permissionCollection.UpdateOne(ctx, bson.M{"_id": perm.ID}, bson.M{
		"$set": bson.M{
			"verified":    true,
			"verified_at": now,
			"updated_at":  now,
		},
		"$unset": bson.M{
			"verification_code": "",
			"code_expires_at":   "",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to activate permission: %w", err)
	}
	return nil
}

// AuthorizeUpload is the single gate every contribution passes through.
// Public links hand out uploader grants on sight; dedicated links
// require a pre-existing grant. A public link that does not collect
// emails admits anonymous contributions with a transient uploader
// grant that is never persisted.
func (s *PermissionService) AuthorizeUpload(ctx context.Context, link *models.Link, email, name string) (*models.Permission, error) {
	if !link.IsActive {
		return nil, ErrLinkInactive
	}

	email = normalizeEmail(email)
	if email == "" {
		if link.IsPublic && !link.Config.RequireEmail {
			return &models.Permission{LinkID: link.ID, Role: models.RoleUploader, Name: name}, nil
		}
		if !link.IsPublic {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: email is required for this link", ErrValidation)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if link.IsPublic {
		return s.EnsureUploader(ctx, link.ID, email, name)
	}

	perm, err := s.getByEmail(ctx, link.ID, email)
	if err == ErrNotFound {
		return nil, ErrUnauthorized
	} else if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.permissionCollection.UpdateOne(ctx, bson.M{"_id": perm.ID}, bson.M{
		"$set": bson.M{"last_activity_at": now},
	}); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to touch permission activity: %v", err))
	}

	return perm, nil
}

func (s *PermissionService) getByEmail(ctx context.Context, linkID primitive.ObjectID, email string) (*models.Permission, error) {
	var perm models.Permission
	err := s.permissionCollection.FindOne(ctx, bson.M{
		"link_id": linkID,
		"email":   email,
	}).Decode(&perm)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &perm, nil
}

func (s *PermissionService) GetPermission(ctx context.Context, linkID primitive.ObjectID, email string) (*models.Permission, error) {
	return s.getByEmail(ctx, linkID, normalizeEmail(email))
}

func (s *PermissionService) ListByLink(ctx context.Context, linkID primitive.ObjectID) ([]models.Permission, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cursor, err := s.permissionCollection.Find(ctx, bson.M{"link_id": linkID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer cursor.Close(ctx)

	var perms []models.Permission
	if err = cursor.All(ctx, &perms); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	return perms, nil
}

func (s *PermissionService) DeletePermission(ctx context.Context, linkID primitive.ObjectID, email string) error {
	email = normalizeEmail(email)

	perm, err := s.getByEmail(ctx, linkID, email)
	if err != nil {
		return err
	}
	if perm.Role == models.RoleOwner {
		// The owner grant is structural; it only goes when the link does.
		return ErrConflict
	}

	result, err := s.permissionCollection.DeleteOne(ctx, bson.M{"_id": perm.ID})
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpiredCodes clears verification codes past their expiry so a
// stale code can never be replayed. Run periodically by the scheduler.
func (s *PermissionService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	result, err := s.permissionCollection.UpdateMany(ctx,
		bson.M{"code_expires_at": bson.M{"$lt": time.Now()}},
		bson.M{"$unset": bson.M{"verification_code": "", "code_expires_at": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired codes: %w", err)
	}
	return result.ModifiedCount, nil
}
