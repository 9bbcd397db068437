package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// handleError maps service errors onto HTTP responses in one place so
// every controller reports the same way.
func handleError(c *gin.Context, err error, defaultMessage string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, "Resource not found")
	case errors.Is(err, services.ErrUnauthorized):
		utils.Forbidden(c, "Access denied")
	case errors.Is(err, services.ErrValidation):
		utils.BadRequest(c, "Invalid input", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Conflict(c, "A resource with that name already exists")
	case errors.Is(err, services.ErrDepthExceeded):
		utils.BadRequest(c, "Folder nesting limit reached", err.Error())
	case errors.Is(err, services.ErrCyclicMove):
		utils.BadRequest(c, "A folder cannot be moved into itself or its own subtree", err.Error())
	case errors.Is(err, services.ErrLinkInactive):
		utils.ErrorResponse(c, http.StatusForbidden, "This link is currently paused", nil)
	case errors.Is(err, services.ErrInvalidCode):
		utils.BadRequest(c, "Invalid or expired verification code", nil)
	case errors.Is(err, services.ErrQuotaExceeded):
		utils.InsufficientStorage(c, "Storage quota exceeded")
	case errors.Is(err, services.ErrTransactionFailed):
		utils.InternalServerError(c, "Operation could not be completed, no changes were made")
	default:
		utils.InternalServerError(c, defaultMessage)
	}
}
