package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite tests session token issuing and verification.
type JWTTestSuite struct {
	suite.Suite
	secret string
}

func (s *JWTTestSuite) SetupTest() {
	s.secret = "test-secret"
}

func (s *JWTTestSuite) TestRoundTrip() {
	token, err := GenerateSessionToken(&SessionClaims{
		ExternalID: "idp_123",
		Email:      "jane@example.com",
		Username:   "jane",
	}, s.secret, time.Hour)
	s.Require().NoError(err)

	claims, err := VerifySessionToken(token, s.secret)
	s.Require().NoError(err)
	s.Equal("idp_123", claims.ExternalID)
	s.Equal("jane@example.com", claims.Email)
	s.Equal("jane", claims.Username)
}

func (s *JWTTestSuite) TestWrongSecret() {
	token, err := GenerateSessionToken(&SessionClaims{ExternalID: "idp_123"}, s.secret, time.Hour)
	s.Require().NoError(err)

	_, err = VerifySessionToken(token, "other-secret")
	s.Error(err)
}

func (s *JWTTestSuite) TestExpiredToken() {
	token, err := GenerateSessionToken(&SessionClaims{ExternalID: "idp_123"}, s.secret, -time.Minute)
	s.Require().NoError(err)

	_, err = VerifySessionToken(token, s.secret)
	s.Error(err)
}

// TestMissingIdentity: a token with no external id is useless even if
// the signature checks out.
func (s *JWTTestSuite) TestMissingIdentity() {
	token, err := GenerateSessionToken(&SessionClaims{Email: "jane@example.com"}, s.secret, time.Hour)
	s.Require().NoError(err)

	_, err = VerifySessionToken(token, s.secret)
	s.Error(err)
}

func (s *JWTTestSuite) TestGarbageToken() {
	_, err := VerifySessionToken("not.a.token", s.secret)
	s.Error(err)
}

func TestJWTTestSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
