package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/utils"
)

// AuthMiddleware verifies the session token and puts the external
// identity claims on the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			utils.Unauthorized(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := utils.VerifySessionToken(token, jwtSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("externalId", claims.ExternalID)
		c.Set("email", claims.Email)
		c.Set("username", claims.Username)
		c.Set("firstName", claims.FirstName)
		c.Set("lastName", claims.LastName)
		c.Set("avatarUrl", claims.AvatarURL)

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// ClaimsProfile rebuilds the identity profile from context values set
// by AuthMiddleware.
func ClaimsProfile(c *gin.Context) (externalID, email string, ok bool) {
	externalID = c.GetString("externalId")
	email = c.GetString("email")
	if externalID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Missing identity claims", nil)
		return "", "", false
	}
	return externalID, email, true
}
