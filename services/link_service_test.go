package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
)

// LinkServiceTestSuite exercises link management against a real
// MongoDB. Skipped unless MONGO_TEST_URI is set.
type LinkServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *mongo.Database
	service *LinkService
	folders *FolderService
	wsID    primitive.ObjectID
}

func (s *LinkServiceTestSuite) SetupSuite() {
	s.db = testDatabase(s.T())
	s.ctx = context.Background()
	s.service = NewLinkService(s.db)
	s.folders = NewFolderService(s.db)
}

func (s *LinkServiceTestSuite) SetupTest() {
	s.wsID = primitive.NewObjectID()
}

func (s *LinkServiceTestSuite) mustCreate(slug string) *models.Link {
	link, err := s.service.CreateLink(s.ctx, CreateLinkRequest{
		WorkspaceID: s.wsID,
		Slug:        slug,
		Name:        slug,
		IsPublic:    true,
	})
	s.Require().NoError(err)
	return link
}

// TestSlugIsGloballyUnique: the same slug is refused even for a
// different workspace.
func (s *LinkServiceTestSuite) TestSlugIsGloballyUnique() {
	s.mustCreate("wedding-photos")

	_, err := s.service.CreateLink(s.ctx, CreateLinkRequest{
		WorkspaceID: primitive.NewObjectID(),
		Slug:        "wedding-photos",
	})
	s.ErrorIs(err, ErrConflict)

	available, err := s.service.IsSlugAvailable(s.ctx, "wedding-photos", nil)
	s.Require().NoError(err)
	s.False(available)

	available, err = s.service.IsSlugAvailable(s.ctx, "something-else", nil)
	s.Require().NoError(err)
	s.True(available)
}

func (s *LinkServiceTestSuite) TestSlugAvailableToItself() {
	link := s.mustCreate("keep-this-slug")

	available, err := s.service.IsSlugAvailable(s.ctx, "keep-this-slug", &link.ID)
	s.Require().NoError(err)
	s.True(available)
}

func (s *LinkServiceTestSuite) TestPauseAndResume() {
	link := s.mustCreate("pausable")

	s.Require().NoError(s.service.SetActive(s.ctx, s.wsID, link.ID, false))
	got, err := s.service.GetLink(s.ctx, s.wsID, link.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)

	s.Require().NoError(s.service.SetActive(s.ctx, s.wsID, link.ID, true))
	got, err = s.service.GetLink(s.ctx, s.wsID, link.ID)
	s.Require().NoError(err)
	s.True(got.IsActive)
}

func (s *LinkServiceTestSuite) TestConfigPatchOnlyTouchesGivenFields() {
	link := s.mustCreate("configurable")

	welcome := "drop your files here"
	s.Require().NoError(s.service.UpdateConfig(s.ctx, s.wsID, link.ID, LinkConfigPatch{
		WelcomeMessage: &welcome,
	}))

	got, err := s.service.GetLink(s.ctx, s.wsID, link.ID)
	s.Require().NoError(err)
	s.Equal("drop your files here", got.Config.WelcomeMessage)
	// Untouched fields keep their creation-time values.
	s.True(got.IsPublic)
}

func (s *LinkServiceTestSuite) TestCrossWorkspaceLooksLikeMissing() {
	link := s.mustCreate("private-link")

	_, err := s.service.GetLink(s.ctx, primitive.NewObjectID(), link.ID)
	s.ErrorIs(err, ErrNotFound)
}

// TestDeleteLinkKeepsContent: permissions cascade away, collected
// folders and files survive with the link reference cleared.
func (s *LinkServiceTestSuite) TestDeleteLinkKeepsContent() {
	link := s.mustCreate("doomed")

	folder, err := s.folders.CreateFolder(s.ctx, s.wsID, "collected", nil, &link.ID, "jane@example.com", "Jane")
	s.Require().NoError(err)

	now := time.Now()
	file := models.File{
		ID:          primitive.NewObjectID(),
		WorkspaceID: s.wsID,
		ParentID:    &folder.ID,
		LinkID:      &link.ID,
		Name:        "collected.pdf",
		Size:        10,
		StorageKey:  "workspaces/test/collected.pdf",
		ScanStatus:  models.ScanStatusClean,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	_, err = s.db.Collection("files").InsertOne(s.ctx, file)
	s.Require().NoError(err)

	perms := NewPermissionService(s.db, nil, 15*time.Minute)
	_, err = perms.CreatePermission(s.ctx, link.ID, "jane@example.com", models.RoleUploader, "Jane")
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteLink(s.ctx, s.wsID, link.ID))

	_, err = s.service.GetLink(s.ctx, s.wsID, link.ID)
	s.ErrorIs(err, ErrNotFound)

	remaining, err := perms.ListByLink(s.ctx, link.ID)
	s.Require().NoError(err)
	s.Empty(remaining)

	gotFolder, err := s.folders.GetFolder(s.ctx, s.wsID, folder.ID)
	s.Require().NoError(err)
	s.Nil(gotFolder.LinkID)

	var gotFile models.File
	err = s.db.Collection("files").FindOne(s.ctx, bson.M{"_id": file.ID}).Decode(&gotFile)
	s.Require().NoError(err)
	s.Nil(gotFile.LinkID)
}

func (s *LinkServiceTestSuite) TestResolveUpload() {
	now := time.Now()
	userID := primitive.NewObjectID()
	_, err := s.db.Collection("users").InsertOne(s.ctx, models.User{
		ID:         userID,
		ExternalID: "idp_resolve",
		Email:      "resolve@example.com",
		Username:   "resolver",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	s.Require().NoError(err)
	_, err = s.db.Collection("workspaces").InsertOne(s.ctx, models.Workspace{
		ID:        s.wsID,
		UserID:    userID,
		Name:      "resolver's workspace",
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.Require().NoError(err)

	link := s.mustCreate("resolver-drop")

	got, err := s.service.ResolveUpload(s.ctx, "resolver", "resolver-drop")
	s.Require().NoError(err)
	s.Equal(link.ID, got.ID)

	// Right slug, wrong username: the pairing must not resolve.
	_, err = s.service.ResolveUpload(s.ctx, "someone-else", "resolver-drop")
	s.ErrorIs(err, ErrNotFound)
}

func TestLinkServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}
