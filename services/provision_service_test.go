package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
)

// ProvisionServiceTestSuite exercises first-login provisioning against
// a real MongoDB replica set. Skipped unless MONGO_TEST_URI is set.
type ProvisionServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *mongo.Database
	links   *LinkService
	service *ProvisionService
}

func (s *ProvisionServiceTestSuite) SetupSuite() {
	s.db = testDatabase(s.T())
	s.ctx = context.Background()
	s.links = NewLinkService(s.db)
	// No identity gateway: sync warnings are covered separately.
	s.service = NewProvisionService(s.db, s.links, nil, 3)
}

func (s *ProvisionServiceTestSuite) profile(externalID, email, username string) IdentityProfile {
	return IdentityProfile{
		ExternalID: externalID,
		Email:      email,
		Username:   username,
		FirstName:  "Jane",
		LastName:   "Doe",
	}
}

func (s *ProvisionServiceTestSuite) TestProvisionCreatesAllFourRecords() {
	result, err := s.service.Provision(s.ctx, s.profile("idp_1", "jane@example.com", "jane"))
	s.Require().NoError(err)
	s.True(result.Created)
	s.Require().NotNil(result.User)
	s.Require().NotNil(result.Workspace)
	s.Require().NotNil(result.Link)

	s.Equal(result.User.ID, result.Workspace.UserID)
	s.Equal(result.Workspace.ID, result.Link.WorkspaceID)
	s.Equal("jane", result.Link.Slug)
	s.True(result.Link.IsPublic)

	// The owner grant exists and is pre-verified.
	var grant models.Permission
	err = s.db.Collection("permissions").FindOne(s.ctx, bson.M{"link_id": result.Link.ID}).Decode(&grant)
	s.Require().NoError(err)
	s.Equal(models.RoleOwner, grant.Role)
	s.True(grant.Verified)
	s.Equal("jane@example.com", grant.Email)
}

func (s *ProvisionServiceTestSuite) TestProvisionIsIdempotent() {
	first, err := s.service.Provision(s.ctx, s.profile("idp_2", "repeat@example.com", "repeat"))
	s.Require().NoError(err)
	s.True(first.Created)

	second, err := s.service.Provision(s.ctx, s.profile("idp_2", "repeat@example.com", "repeat"))
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.User.ID, second.User.ID)
	s.Equal(first.Workspace.ID, second.Workspace.ID)

	count, err := s.db.Collection("users").CountDocuments(s.ctx, bson.M{"external_id": "idp_2"})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

// TestSlugCollisionGetsSuffix: a second account with a taken username
// slug lands on username-1.
func (s *ProvisionServiceTestSuite) TestSlugCollisionGetsSuffix() {
	first, err := s.service.Provision(s.ctx, s.profile("idp_3", "sam.one@example.com", "sam"))
	s.Require().NoError(err)
	s.Equal("sam", first.Link.Slug)

	// "Sam" is a distinct username but slugifies to the taken "sam".
	second, err := s.service.Provision(s.ctx, s.profile("idp_4", "sam.two@example.com", "Sam"))
	s.Require().NoError(err)
	s.Require().NotNil(second.Link)
	s.Equal("sam-1", second.Link.Slug)
}

func (s *ProvisionServiceTestSuite) TestUsernameFallsBackToEmail() {
	result, err := s.service.Provision(s.ctx, s.profile("idp_5", "no.username@example.com", ""))
	s.Require().NoError(err)
	s.Equal("no-username-example-com", result.User.Username)
}

// TestFailedInsertLeavesNoRows: when the very first insert of the
// transaction is rejected (a second identity claiming an email that is
// already taken), no row of the four may survive for that identity.
func (s *ProvisionServiceTestSuite) TestFailedInsertLeavesNoRows() {
	first, err := s.service.Provision(s.ctx, s.profile("idp_6", "taken@example.com", "taken"))
	s.Require().NoError(err)
	s.True(first.Created)

	collections := []string{"users", "workspaces", "links", "permissions"}
	before := make(map[string]int64, len(collections))
	for _, name := range collections {
		count, err := s.db.Collection(name).CountDocuments(s.ctx, bson.M{})
		s.Require().NoError(err)
		before[name] = count
	}

	_, err = s.service.Provision(s.ctx, s.profile("idp_7", "taken@example.com", "someone-else"))
	s.ErrorIs(err, ErrConflict)

	for _, name := range collections {
		count, err := s.db.Collection(name).CountDocuments(s.ctx, bson.M{})
		s.Require().NoError(err)
		s.Equal(before[name], count, name)
	}

	users, err := s.db.Collection("users").CountDocuments(s.ctx, bson.M{"external_id": "idp_7"})
	s.Require().NoError(err)
	s.Equal(int64(0), users)
}

func TestProvisionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProvisionServiceTestSuite))
}
