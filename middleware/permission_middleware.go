package middleware

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// RequireAccount resolves the authenticated identity to its account and
// workspace, so handlers downstream work with ObjectIDs instead of
// token claims. Must run after AuthMiddleware.
func RequireAccount(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := c.GetString("externalId")
		if externalID == "" {
			utils.Unauthorized(c, "Missing identity claims")
			c.Abort()
			return
		}

		user, err := userService.GetByExternalID(c.Request.Context(), externalID)
		if err != nil {
			utils.Unauthorized(c, "Account not provisioned")
			c.Abort()
			return
		}

		workspace, err := userService.GetWorkspace(c.Request.Context(), user.ID)
		if err != nil {
			utils.Unauthorized(c, "Workspace not provisioned")
			c.Abort()
			return
		}

		c.Set("userId", user.ID)
		c.Set("workspaceId", workspace.ID)

		c.Next()
	}
}

// WorkspaceID reads the resolved workspace from context.
func WorkspaceID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("workspaceId")
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// UserID reads the resolved account id from context.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("userId")
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}
