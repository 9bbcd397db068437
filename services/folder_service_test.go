package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
)

// FolderServiceTestSuite exercises tree operations against a real
// MongoDB. Skipped unless MONGO_TEST_URI is set.
type FolderServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *mongo.Database
	service *FolderService
	wsID    primitive.ObjectID
	otherWS primitive.ObjectID
}

func (s *FolderServiceTestSuite) SetupSuite() {
	s.db = testDatabase(s.T())
	s.ctx = context.Background()
	s.service = NewFolderService(s.db)
}

func (s *FolderServiceTestSuite) SetupTest() {
	// Fresh workspaces isolate each test's tree.
	s.wsID = primitive.NewObjectID()
	s.otherWS = primitive.NewObjectID()
}

func (s *FolderServiceTestSuite) mustCreate(name string, parentID *primitive.ObjectID) *models.Folder {
	folder, err := s.service.CreateFolder(s.ctx, s.wsID, name, parentID, nil, "", "")
	s.Require().NoError(err)
	return folder
}

func (s *FolderServiceTestSuite) TestCreateAndGet() {
	folder := s.mustCreate("Documents", nil)

	got, err := s.service.GetFolder(s.ctx, s.wsID, folder.ID)
	s.Require().NoError(err)
	s.Equal("Documents", got.Name)
	s.Nil(got.ParentID)
}

func (s *FolderServiceTestSuite) TestSiblingNameConflict() {
	s.mustCreate("Documents", nil)

	_, err := s.service.CreateFolder(s.ctx, s.wsID, "Documents", nil, nil, "", "")
	s.ErrorIs(err, ErrConflict)

	// The same name under a different parent is fine.
	parent := s.mustCreate("Archive", nil)
	_, err = s.service.CreateFolder(s.ctx, s.wsID, "Documents", &parent.ID, nil, "", "")
	s.NoError(err)
}

func (s *FolderServiceTestSuite) TestCrossWorkspaceLooksLikeMissing() {
	folder := s.mustCreate("Private", nil)

	_, err := s.service.GetFolder(s.ctx, s.otherWS, folder.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *FolderServiceTestSuite) TestDepthLimit() {
	// Depths 0 through MaxFolderDepth are allowed; one more is not.
	var parentID *primitive.ObjectID
	for i := 0; i <= models.MaxFolderDepth; i++ {
		folder := s.mustCreate(fmt.Sprintf("level-%d", i), parentID)
		parentID = &folder.ID
	}

	_, err := s.service.CreateFolder(s.ctx, s.wsID, "too-deep", parentID, nil, "", "")
	s.ErrorIs(err, ErrDepthExceeded)
}

func (s *FolderServiceTestSuite) TestGetDepth() {
	a := s.mustCreate("a", nil)
	b := s.mustCreate("b", &a.ID)
	c := s.mustCreate("c", &b.ID)

	depth, err := s.service.GetDepth(s.ctx, s.wsID, a.ID)
	s.Require().NoError(err)
	s.Equal(0, depth)

	depth, err = s.service.GetDepth(s.ctx, s.wsID, c.ID)
	s.Require().NoError(err)
	s.Equal(2, depth)
}

func (s *FolderServiceTestSuite) TestBreadcrumbOrder() {
	a := s.mustCreate("a", nil)
	b := s.mustCreate("b", &a.ID)
	c := s.mustCreate("c", &b.ID)

	path, err := s.service.GetAncestorPath(s.ctx, s.wsID, c.ID)
	s.Require().NoError(err)
	s.Require().Len(path, 3)
	s.Equal("a", path[0].Name)
	s.Equal("b", path[1].Name)
	s.Equal("c", path[2].Name)
}

func (s *FolderServiceTestSuite) TestMoveIntoOwnSubtreeRejected() {
	a := s.mustCreate("a", nil)
	b := s.mustCreate("b", &a.ID)
	c := s.mustCreate("c", &b.ID)

	err := s.service.MoveFolder(s.ctx, s.wsID, a.ID, &c.ID)
	s.ErrorIs(err, ErrCyclicMove)

	err = s.service.MoveFolder(s.ctx, s.wsID, a.ID, &a.ID)
	s.ErrorIs(err, ErrCyclicMove)
}

func (s *FolderServiceTestSuite) TestMoveReparents() {
	a := s.mustCreate("a", nil)
	b := s.mustCreate("b", nil)
	child := s.mustCreate("child", &a.ID)

	err := s.service.MoveFolder(s.ctx, s.wsID, child.ID, &b.ID)
	s.Require().NoError(err)

	got, err := s.service.GetFolder(s.ctx, s.wsID, child.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ParentID)
	s.Equal(b.ID, *got.ParentID)
}

func (s *FolderServiceTestSuite) TestMoveDepthLimit() {
	// Build a chain one short of the limit, then try to hang a
	// two-level subtree off its end.
	var parentID *primitive.ObjectID
	for i := 0; i < models.MaxFolderDepth; i++ {
		folder := s.mustCreate(fmt.Sprintf("deep-%d", i), parentID)
		parentID = &folder.ID
	}

	top := s.mustCreate("movable", nil)
	s.mustCreate("movable-child", &top.ID)

	err := s.service.MoveFolder(s.ctx, s.wsID, top.ID, parentID)
	s.ErrorIs(err, ErrDepthExceeded)
}

func (s *FolderServiceTestSuite) TestListChildren() {
	parent := s.mustCreate("parent", nil)
	s.mustCreate("zeta", &parent.ID)
	s.mustCreate("alpha", &parent.ID)

	children, err := s.service.ListChildren(s.ctx, s.wsID, &parent.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal("alpha", children[0].Name)
	s.Equal("zeta", children[1].Name)
}

func (s *FolderServiceTestSuite) TestReservedCharacterNameRejected() {
	_, err := s.service.CreateFolder(s.ctx, s.wsID, "photos/2026", nil, nil, "", "")
	s.ErrorIs(err, ErrValidation)

	folder := s.mustCreate("photos", nil)
	err = s.service.RenameFolder(s.ctx, s.wsID, folder.ID, "photos/2026")
	s.ErrorIs(err, ErrValidation)
}

func (s *FolderServiceTestSuite) TestMoveAcrossLinksRescopesSubtree() {
	oldLink := primitive.NewObjectID()
	newLink := primitive.NewObjectID()

	src, err := s.service.CreateFolder(s.ctx, s.wsID, "src", nil, &oldLink, "", "")
	s.Require().NoError(err)
	child := s.mustCreate("child", &src.ID)

	now := time.Now()
	fileID := primitive.NewObjectID()
	_, err = s.db.Collection("files").InsertOne(s.ctx, models.File{
		ID:          fileID,
		WorkspaceID: s.wsID,
		ParentID:    &child.ID,
		LinkID:      &oldLink,
		Name:        "nested.pdf",
		UploadedAt:  now,
		UpdatedAt:   now,
	})
	s.Require().NoError(err)

	dst, err := s.service.CreateFolder(s.ctx, s.wsID, "dst", nil, &newLink, "", "")
	s.Require().NoError(err)

	s.Require().NoError(s.service.MoveFolder(s.ctx, s.wsID, src.ID, &dst.ID))

	// Every node of the moved subtree, files included, now belongs to
	// the destination's link.
	for _, id := range []primitive.ObjectID{src.ID, child.ID} {
		got, err := s.service.GetFolder(s.ctx, s.wsID, id)
		s.Require().NoError(err)
		s.Require().NotNil(got.LinkID)
		s.Equal(newLink, *got.LinkID)
	}
	var file models.File
	s.Require().NoError(s.db.Collection("files").FindOne(s.ctx, bson.M{"_id": fileID}).Decode(&file))
	s.Require().NotNil(file.LinkID)
	s.Equal(newLink, *file.LinkID)
}

func TestFolderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FolderServiceTestSuite))
}
