package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/services"
)

// ErrorMappingTestSuite checks that service errors reach clients with
// the right status codes.
type ErrorMappingTestSuite struct {
	suite.Suite
}

func (s *ErrorMappingTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *ErrorMappingTestSuite) respond(err error) int {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleError(c, err, "fallback")
	return w.Code
}

func (s *ErrorMappingTestSuite) TestStatusCodes() {
	s.Equal(http.StatusNotFound, s.respond(services.ErrNotFound))
	s.Equal(http.StatusForbidden, s.respond(services.ErrUnauthorized))
	s.Equal(http.StatusConflict, s.respond(services.ErrConflict))
	s.Equal(http.StatusBadRequest, s.respond(services.ErrValidation))
	s.Equal(http.StatusBadRequest, s.respond(services.ErrDepthExceeded))
	s.Equal(http.StatusBadRequest, s.respond(services.ErrCyclicMove))
	s.Equal(http.StatusForbidden, s.respond(services.ErrLinkInactive))
	s.Equal(http.StatusBadRequest, s.respond(services.ErrInvalidCode))
	s.Equal(http.StatusInsufficientStorage, s.respond(services.ErrQuotaExceeded))
	s.Equal(http.StatusInternalServerError, s.respond(services.ErrTransactionFailed))
}

// TestRejectedNameIsClientError: a name the validator refuses must
// surface as a 400, never a 500.
func (s *ErrorMappingTestSuite) TestRejectedNameIsClientError() {
	var folders services.FolderService
	_, err := folders.CreateFolder(context.Background(), primitive.NewObjectID(), "photos/2026", nil, nil, "", "")
	s.Require().Error(err)
	s.Equal(http.StatusBadRequest, s.respond(err))
}

func (s *ErrorMappingTestSuite) TestUnknownErrorIsServerError() {
	s.Equal(http.StatusInternalServerError, s.respond(context.DeadlineExceeded))
}

func TestErrorMappingTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorMappingTestSuite))
}
