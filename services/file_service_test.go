package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
)

// FileServiceTestSuite exercises the content ledger against a real
// MongoDB with an in-memory blob store. Skipped unless MONGO_TEST_URI
// is set.
type FileServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *mongo.Database
	store   *memStore
	folders *FolderService
	service *FileService
	userID  primitive.ObjectID
	wsID    primitive.ObjectID
}

const testQuota = 1 << 20 // 1 MiB

func (s *FileServiceTestSuite) SetupSuite() {
	s.db = testDatabase(s.T())
	s.ctx = context.Background()
	s.folders = NewFolderService(s.db)
}

func (s *FileServiceTestSuite) SetupTest() {
	s.store = newMemStore()
	s.service = NewFileService(s.db, s.folders, s.store, testQuota)

	now := time.Now()
	s.userID = primitive.NewObjectID()
	s.wsID = primitive.NewObjectID()

	_, err := s.db.Collection("users").InsertOne(s.ctx, models.User{
		ID:         s.userID,
		ExternalID: "idp_" + s.userID.Hex(),
		Email:      s.userID.Hex() + "@example.com",
		Username:   "user-" + s.userID.Hex(),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	s.Require().NoError(err)
	_, err = s.db.Collection("workspaces").InsertOne(s.ctx, models.Workspace{
		ID:        s.wsID,
		UserID:    s.userID,
		Name:      "test workspace",
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.Require().NoError(err)
}

func (s *FileServiceTestSuite) upload(name, content string, parentID *primitive.ObjectID) *models.File {
	file, err := s.service.CreateFile(s.ctx, CreateFileRequest{
		WorkspaceID:   s.wsID,
		ParentID:      parentID,
		Name:          name,
		Size:          int64(len(content)),
		UploaderEmail: "contributor@example.com",
		Body:          payload(content),
	})
	s.Require().NoError(err)
	return file
}

func (s *FileServiceTestSuite) usedStorage() int64 {
	var user models.User
	err := s.db.Collection("users").FindOne(s.ctx, bson.M{"_id": s.userID}).Decode(&user)
	s.Require().NoError(err)
	return user.UsedStorage
}

func (s *FileServiceTestSuite) TestCreateStoresPayloadAndAccounting() {
	file := s.upload("report.pdf", "hello world", nil)

	s.True(s.store.has(file.StorageKey))
	s.Equal(int64(11), file.Size)
	s.Equal(models.ScanStatusPending, file.ScanStatus)
	s.Equal(int64(11), s.usedStorage())
}

func (s *FileServiceTestSuite) TestQuotaEnforced() {
	_, err := s.service.CreateFile(s.ctx, CreateFileRequest{
		WorkspaceID:   s.wsID,
		Name:          "huge.bin",
		Size:          testQuota + 1,
		UploaderEmail: "contributor@example.com",
		Body:          payload("x"),
	})
	s.ErrorIs(err, ErrQuotaExceeded)
}

func (s *FileServiceTestSuite) TestDuplicateNameRejected() {
	s.upload("w2.pdf", "first", nil)

	_, err := s.service.CreateFile(s.ctx, CreateFileRequest{
		WorkspaceID:   s.wsID,
		Name:          "w2.pdf",
		Size:          5,
		UploaderEmail: "contributor@example.com",
		Body:          payload("again"),
	})
	s.ErrorIs(err, ErrConflict)
}

func (s *FileServiceTestSuite) TestNextAvailableName() {
	s.upload("w2.pdf", "first", nil)
	s.upload("w2 (1).pdf", "second", nil)

	name, err := s.service.NextAvailableName(s.ctx, s.wsID, nil, "w2.pdf")
	s.Require().NoError(err)
	s.Equal("w2 (2).pdf", name)

	name, err = s.service.NextAvailableName(s.ctx, s.wsID, nil, "fresh.pdf")
	s.Require().NoError(err)
	s.Equal("fresh.pdf", name)
}

func (s *FileServiceTestSuite) TestDeleteRemovesPayloadFirst() {
	file := s.upload("report.pdf", "hello world", nil)

	s.Require().NoError(s.service.DeleteFile(s.ctx, s.wsID, file.ID))
	s.False(s.store.has(file.StorageKey))
	s.Equal(int64(0), s.usedStorage())

	_, err := s.service.GetFile(s.ctx, s.wsID, file.ID)
	s.ErrorIs(err, ErrNotFound)
}

// TestDeleteFailsClosed: when storage refuses the delete, the metadata
// row must survive.
func (s *FileServiceTestSuite) TestDeleteFailsClosed() {
	file := s.upload("report.pdf", "hello world", nil)

	s.store.failDelete = true
	err := s.service.DeleteFile(s.ctx, s.wsID, file.ID)
	s.Error(err)

	got, err := s.service.GetFile(s.ctx, s.wsID, file.ID)
	s.Require().NoError(err)
	s.Equal(file.StorageKey, got.StorageKey)
	s.Equal(int64(11), s.usedStorage())
}

func (s *FileServiceTestSuite) TestListByUploaderAcrossFolders() {
	folder, err := s.folders.CreateFolder(s.ctx, s.wsID, "nested", nil, nil, "", "")
	s.Require().NoError(err)

	s.upload("root.txt", "a", nil)
	s.upload("nested.txt", "b", &folder.ID)

	files, err := s.service.ListByUploaderEmail(s.ctx, s.wsID, "contributor@example.com")
	s.Require().NoError(err)
	s.Len(files, 2)
}

func (s *FileServiceTestSuite) TestListByDateRange() {
	s.upload("now.txt", "a", nil)

	files, err := s.service.ListByDateRange(s.ctx, s.wsID, time.Now().Add(-time.Minute), nil)
	s.Require().NoError(err)
	s.Len(files, 1)

	past := time.Now().Add(-2 * time.Hour)
	end := time.Now().Add(-time.Hour)
	files, err = s.service.ListByDateRange(s.ctx, s.wsID, past, &end)
	s.Require().NoError(err)
	s.Empty(files)
}

func (s *FileServiceTestSuite) TestSearchFallsBackToPartialMatch() {
	s.upload("wedding-photos.zip", "a", nil)
	s.upload("invoice.pdf", "b", nil)

	files, err := s.service.Search(s.ctx, s.wsID, "weddi", 10)
	s.Require().NoError(err)
	s.Require().Len(files, 1)
	s.Equal("wedding-photos.zip", files[0].Name)
}

func (s *FileServiceTestSuite) TestMoveFileMetadataOnly() {
	folder, err := s.folders.CreateFolder(s.ctx, s.wsID, "dest", nil, nil, "", "")
	s.Require().NoError(err)
	file := s.upload("report.pdf", "hello", nil)

	s.Require().NoError(s.service.MoveFile(s.ctx, s.wsID, file.ID, &folder.ID))

	got, err := s.service.GetFile(s.ctx, s.wsID, file.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ParentID)
	s.Equal(folder.ID, *got.ParentID)
	// The storage key never changes on a move.
	s.Equal(file.StorageKey, got.StorageKey)
}

func (s *FileServiceTestSuite) TestUpdateScanStatus() {
	file := s.upload("report.pdf", "hello", nil)

	s.Require().NoError(s.service.UpdateScanStatus(s.ctx, file.ID, models.ScanStatusClean))

	got, err := s.service.GetFile(s.ctx, s.wsID, file.ID)
	s.Require().NoError(err)
	s.Equal(models.ScanStatusClean, got.ScanStatus)

	s.Error(s.service.UpdateScanStatus(s.ctx, file.ID, "weird"))
}

func (s *FileServiceTestSuite) TestInvalidFilenameRejected() {
	_, err := s.service.CreateFile(s.ctx, CreateFileRequest{
		WorkspaceID:   s.wsID,
		Name:          "../escape.pdf",
		Size:          5,
		UploaderEmail: "contributor@example.com",
		Body:          payload("hello"),
	})
	s.ErrorIs(err, ErrValidation)

	file := s.upload("fine.pdf", "hello", nil)
	s.ErrorIs(s.service.RenameFile(s.ctx, s.wsID, file.ID, "../escape.pdf"), ErrValidation)
}

// TestQuotaSettledAgainstStreamedBytes: the declared size passes the
// pre-check, but the stream carries more than the remaining quota.
func (s *FileServiceTestSuite) TestQuotaSettledAgainstStreamedBytes() {
	s.upload("filler.bin", strings.Repeat("x", testQuota-10), nil)

	_, err := s.service.CreateFile(s.ctx, CreateFileRequest{
		WorkspaceID:   s.wsID,
		Name:          "liar.bin",
		Size:          5,
		UploaderEmail: "contributor@example.com",
		Body:          payload(strings.Repeat("y", 100)),
	})
	s.ErrorIs(err, ErrQuotaExceeded)

	// The over-quota object is cleaned up, no row exists and the
	// accounting still reflects only the first upload.
	s.Equal(1, s.store.count())
	files, err := s.service.ListByWorkspace(s.ctx, s.wsID)
	s.Require().NoError(err)
	s.Len(files, 1)
	s.Equal(int64(testQuota-10), s.usedStorage())
}

func TestFileServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FileServiceTestSuite))
}
