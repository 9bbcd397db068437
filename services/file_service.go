package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// maxBulkDelete bounds one bulk-delete request; callers split larger
// batches instead of the engine cancelling mid-flight.
const maxBulkDelete = 100

// FileService is the content ledger: file metadata CRUD, the
// cross-folder email/date/text queries, and the storage-first deletion
// ordering.
type FileService struct {
	db                  *mongo.Database
	fileCollection      *mongo.Collection
	userCollection      *mongo.Collection
	workspaceCollection *mongo.Collection
	folderService       *FolderService
	store               BlobStore
	maxUserStorage      int64
}

func NewFileService(db *mongo.Database, folderService *FolderService, store BlobStore, maxUserStorage int64) *FileService {
	s := &FileService{
		db:                  db,
		fileCollection:      db.Collection("files"),
		userCollection:      db.Collection("users"),
		workspaceCollection: db.Collection("workspaces"),
		folderService:       folderService,
		store:               store,
		maxUserStorage:      maxUserStorage,
	}
	s.createIndexes()
	return s
}

func (s *FileService) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "workspace_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("file_sibling_name_unique"),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "uploader_email", Value: "text"},
				{Key: "uploader_name", Value: "text"},
			},
			Options: options.Index().SetName("file_search_index"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "uploaded_at", Value: -1}},
			Options: options.Index().SetName("workspace_recency_index"),
		},
		{
			Keys: bson.D{
				{Key: "workspace_id", Value: 1},
				{Key: "uploader_email", Value: 1},
				{Key: "uploaded_at", Value: -1},
			},
			Options: options.Index().SetName("uploader_email_index"),
		},
	}

	if _, err := s.fileCollection.Indexes().CreateMany(ctx, indexes); err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create file indexes: %v", err))
	}
}

type CreateFileRequest struct {
	WorkspaceID     primitive.ObjectID
	ParentID        *primitive.ObjectID
	LinkID          *primitive.ObjectID
	Name            string
	Size            int64 // declared size, used for the quota check
	MimeType        string
	UploaderEmail   string
	UploaderName    string
	UploaderMessage string
	Body            io.Reader
}

// CreateFile persists one file. The byte transfer to object storage
// must complete before the metadata row is inserted; a half-done upload
// must never be billable or listable.
func (s *FileService) CreateFile(ctx context.Context, req CreateFileRequest) (*models.File, error) {
	if err := utils.ValidateFileName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	workspace, user, err := s.workspaceOwner(ctx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStorageQuota(user.UsedStorage, req.Size, s.maxUserStorage); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	remaining := s.maxUserStorage - user.UsedStorage

	if req.ParentID != nil {
		folder, err := s.folderService.GetFolder(ctx, req.WorkspaceID, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if req.LinkID == nil {
			req.LinkID = folder.LinkID
		}
	}

	taken, err := s.CheckDuplicateName(ctx, req.WorkspaceID, req.ParentID, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	key := BuildStorageKey(workspace.ID.Hex(), req.Name)
	// The declared size is only a hint; the stream itself is bounded so
	// a client cannot write past the remaining quota, and the quota is
	// settled against the bytes actually stored.
	put, err := s.store.Put(ctx, key, io.LimitReader(req.Body, remaining+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store file payload: %w", err)
	}
	if put.Size > remaining {
		if delErr := s.store.Delete(ctx, put.Key); delErr != nil {
			utils.LogError("failed to clean up over-quota object", delErr)
		}
		return nil, fmt.Errorf("%w: upload exceeds remaining storage", ErrQuotaExceeded)
	}

	if req.MimeType == "" {
		req.MimeType = mimeTypeFor(req.Name)
	}

	now := time.Now()
	file := models.File{
		ID:              primitive.NewObjectID(),
		WorkspaceID:     req.WorkspaceID,
		ParentID:        req.ParentID,
		LinkID:          req.LinkID,
		Name:            req.Name,
		Size:            put.Size,
		MimeType:        req.MimeType,
		StorageKey:      put.Key,
		SHA1Hash:        put.SHA1,
		UploaderEmail:   req.UploaderEmail,
		UploaderName:    req.UploaderName,
		UploaderMessage: req.UploaderMessage,
		ScanStatus:      models.ScanStatusPending,
		UploadedAt:      now,
		UpdatedAt:       now,
	}

	if _, err := s.fileCollection.InsertOne(ctx, file); err != nil {
		// The row lost the race; the stored object must not leak.
		if delErr := s.store.Delete(ctx, put.Key); delErr != nil {
			utils.LogError("failed to clean up orphaned object after insert conflict", delErr)
		}
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	if _, err := s.userCollection.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$inc": bson.M{"used_storage": put.Size}},
	); err != nil {
		return &file, fmt.Errorf("file saved but failed to update storage usage: %w", err)
	}

	return &file, nil
}

func (s *FileService) workspaceOwner(ctx context.Context, workspaceID primitive.ObjectID) (*models.Workspace, *models.User, error) {
	var workspace models.Workspace
	err := s.workspaceCollection.FindOne(ctx, bson.M{"_id": workspaceID}).Decode(&workspace)
	if err == mongo.ErrNoDocuments {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	var user models.User
	err = s.userCollection.FindOne(ctx, bson.M{"_id": workspace.UserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	return &workspace, &user, nil
}

// CheckDuplicateName reports whether a filename is already taken among
// the siblings of one parent (nil parent = workspace root).
func (s *FileService) CheckDuplicateName(ctx context.Context, workspaceID primitive.ObjectID, parentID *primitive.ObjectID, name string) (bool, error) {
	filter := bson.M{"workspace_id": workspaceID, "name": name}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}

	count, err := s.fileCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate filename: %w", err)
	}
	return count > 0, nil
}

// NextAvailableName suffixes a filename until it is free among its
// siblings: "w2.pdf" becomes "w2 (1).pdf", then "w2 (2).pdf".
func (s *FileService) NextAvailableName(ctx context.Context, workspaceID primitive.ObjectID, parentID *primitive.ObjectID, name string) (string, error) {
	taken, err := s.CheckDuplicateName(ctx, workspaceID, parentID, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	for n := 1; n <= 100; n++ {
		candidate := suffixedName(name, n)
		taken, err := s.CheckDuplicateName(ctx, workspaceID, parentID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrConflict
}

func suffixedName(name string, n int) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}

func (s *FileService) GetFile(ctx context.Context, workspaceID, fileID primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := s.fileCollection.FindOne(ctx, bson.M{
		"_id":          fileID,
		"workspace_id": workspaceID,
	}).Decode(&file)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &file, nil
}

func (s *FileService) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.File, error) {
	if len(opts) == 0 {
		opts = append(opts, options.Find().SetSort(bson.M{"uploaded_at": -1}))
	}

	cursor, err := s.fileCollection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err = cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}

	return files, nil
}

// ListByFolder lists files in one folder, newest first; a nil parent
// lists workspace-root files.
func (s *FileService) ListByFolder(ctx context.Context, workspaceID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}
	return s.find(ctx, filter)
}

func (s *FileService) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.File, error) {
	return s.find(ctx, bson.M{"workspace_id": workspaceID})
}

// ListByUploaderEmail collects everything one contributor sent, across
// the entire folder tree in a single query.
func (s *FileService) ListByUploaderEmail(ctx context.Context, workspaceID primitive.ObjectID, email string) ([]models.File, error) {
	return s.find(ctx, bson.M{"workspace_id": workspaceID, "uploader_email": email})
}

// ListByDateRange lists uploads between start and end (end nil = open).
func (s *FileService) ListByDateRange(ctx context.Context, workspaceID primitive.ObjectID, start time.Time, end *time.Time) ([]models.File, error) {
	window := bson.M{"$gte": start}
	if end != nil {
		window["$lte"] = *end
	}
	return s.find(ctx, bson.M{"workspace_id": workspaceID, "uploaded_at": window})
}

// Search matches filename, uploader email and uploader name. The text
// index handles whole-token matches with relevance-then-recency
// ranking; partial tokens fall back to a case-insensitive regex scan.
func (s *FileService) Search(ctx context.Context, workspaceID primitive.ObjectID, query string, limit int64) ([]models.File, error) {
	if query == "" {
		return []models.File{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	textFilter := bson.M{
		"workspace_id": workspaceID,
		"$text":        bson.M{"$search": query},
	}
	textOpts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "uploaded_at", Value: -1},
		}).
		SetLimit(limit)

	files, err := s.find(ctx, textFilter, textOpts)
	if err == nil && len(files) > 0 {
		return files, nil
	}

	searchRegex := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	regexFilter := bson.M{
		"workspace_id": workspaceID,
		"$or": []bson.M{
			{"name": searchRegex},
			{"uploader_email": searchRegex},
			{"uploader_name": searchRegex},
		},
	}
	return s.find(ctx, regexFilter, options.Find().SetSort(bson.M{"uploaded_at": -1}).SetLimit(limit))
}

func (s *FileService) RenameFile(ctx context.Context, workspaceID, fileID primitive.ObjectID, newName string) error {
	if err := utils.ValidateFileName(newName); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	file, err := s.GetFile(ctx, workspaceID, fileID)
	if err != nil {
		return err
	}

	taken, err := s.CheckDuplicateName(ctx, workspaceID, file.ParentID, newName)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}

	_, err = s.fileCollection.UpdateOne(ctx, bson.M{"_id": fileID}, bson.M{
		"$set": bson.M{"name": newName, "updated_at": time.Now()},
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// MoveFile re-parents a file. Metadata only: the storage key is stable,
// so no object-storage call happens here.
func (s *FileService) MoveFile(ctx context.Context, workspaceID, fileID primitive.ObjectID, newParentID *primitive.ObjectID) error {
	file, err := s.GetFile(ctx, workspaceID, fileID)
	if err != nil {
		return err
	}

	newLinkID := file.LinkID
	if newParentID != nil {
		folder, err := s.folderService.GetFolder(ctx, workspaceID, *newParentID)
		if err != nil {
			return err
		}
		newLinkID = folder.LinkID
	}

	taken, err := s.CheckDuplicateName(ctx, workspaceID, newParentID, file.Name)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}

	update := bson.M{"updated_at": time.Now(), "link_id": newLinkID}
	if newParentID != nil {
		update["parent_id"] = *newParentID
	} else {
		update["parent_id"] = nil
	}

	_, err = s.fileCollection.UpdateOne(ctx, bson.M{"_id": fileID}, bson.M{"$set": update})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}

// DeleteFile removes payload then row, in that order. A storage failure
// aborts the delete so the ledger never references missing bytes.
func (s *FileService) DeleteFile(ctx context.Context, workspaceID, fileID primitive.ObjectID) error {
	file, err := s.GetFile(ctx, workspaceID, fileID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		return fmt.Errorf("aborting delete, storage payload not removed: %w", err)
	}

	result, err := s.fileCollection.DeleteOne(ctx, bson.M{"_id": fileID, "workspace_id": workspaceID})
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	var workspace models.Workspace
	if err := s.workspaceCollection.FindOne(ctx, bson.M{"_id": workspaceID}).Decode(&workspace); err == nil {
		_, err = s.userCollection.UpdateOne(ctx,
			bson.M{"_id": workspace.UserID},
			bson.M{"$inc": bson.M{"used_storage": -file.Size}},
		)
		if err != nil {
			return fmt.Errorf("file deleted but failed to update storage usage: %w", err)
		}
	}

	return nil
}

// BulkDelete deletes up to maxBulkDelete files, stopping at the first
// failure. It returns how many files were fully removed.
func (s *FileService) BulkDelete(ctx context.Context, workspaceID primitive.ObjectID, fileIDs []primitive.ObjectID) (int, error) {
	if len(fileIDs) > maxBulkDelete {
		return 0, fmt.Errorf("bulk delete limited to %d files per request", maxBulkDelete)
	}

	deleted := 0
	for _, id := range fileIDs {
		if err := s.DeleteFile(ctx, workspaceID, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// UpdateScanStatus is written by the external virus-scanning collaborator.
func (s *FileService) UpdateScanStatus(ctx context.Context, fileID primitive.ObjectID, status string) error {
	switch status {
	case models.ScanStatusPending, models.ScanStatusClean, models.ScanStatusInfected:
	default:
		return fmt.Errorf("unknown scan status: %s", status)
	}

	result, err := s.fileCollection.UpdateOne(ctx, bson.M{"_id": fileID}, bson.M{
		"$set": bson.M{"scan_status": status, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetThumbnailKey is written by the external thumbnail collaborator.
func (s *FileService) SetThumbnailKey(ctx context.Context, fileID primitive.ObjectID, key string) error {
	result, err := s.fileCollection.UpdateOne(ctx, bson.M{"_id": fileID}, bson.M{
		"$set": bson.M{"thumbnail_key": key, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to set thumbnail key: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DownloadURL returns a time-limited signed URL for the payload.
func (s *FileService) DownloadURL(ctx context.Context, workspaceID, fileID primitive.ObjectID, duration time.Duration) (string, error) {
	file, err := s.GetFile(ctx, workspaceID, fileID)
	if err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, file.StorageKey, duration)
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
