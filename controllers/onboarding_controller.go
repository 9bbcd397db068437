package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

type OnboardingController struct {
	provisionService *services.ProvisionService
	userService      *services.UserService
}

func NewOnboardingController(provisionService *services.ProvisionService, userService *services.UserService) *OnboardingController {
	return &OnboardingController{
		provisionService: provisionService,
		userService:      userService,
	}
}

// Provision creates the account, workspace, default link and owner
// grant for the authenticated identity. Calling it again returns the
// existing records.
func (oc *OnboardingController) Provision(c *gin.Context) {
	externalID := c.GetString("externalId")
	email := c.GetString("email")
	if externalID == "" || email == "" {
		utils.Unauthorized(c, "Missing identity claims")
		return
	}

	profile := services.IdentityProfile{
		ExternalID: externalID,
		Email:      email,
		Username:   c.GetString("username"),
		FirstName:  c.GetString("firstName"),
		LastName:   c.GetString("lastName"),
		AvatarURL:  c.GetString("avatarUrl"),
	}

	result, err := oc.provisionService.Provision(c.Request.Context(), profile)
	if err != nil {
		handleError(c, err, "Failed to provision account")
		return
	}

	if result.SyncWarning != "" {
		utils.SuccessWithWarning(c, "Account provisioned", result.SyncWarning, result)
		return
	}
	if result.Created {
		utils.CreatedResponse(c, "Account provisioned successfully", result)
		return
	}
	utils.SuccessResponse(c, "Account already provisioned", result)
}

// Me returns the caller's account and workspace.
func (oc *OnboardingController) Me(c *gin.Context) {
	externalID := c.GetString("externalId")
	if externalID == "" {
		utils.Unauthorized(c, "Missing identity claims")
		return
	}

	user, err := oc.userService.GetByExternalID(c.Request.Context(), externalID)
	if err != nil {
		handleError(c, err, "Failed to retrieve account")
		return
	}
	workspace, err := oc.userService.GetWorkspace(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err, "Failed to retrieve workspace")
		return
	}

	utils.SuccessResponse(c, "Account retrieved successfully", gin.H{
		"user":      user,
		"workspace": workspace,
	})
}

// UpdateProfile
func (oc *OnboardingController) UpdateProfile(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := oc.userService.UpdateProfile(c.Request.Context(), userID, patch); err != nil {
		handleError(c, err, "Failed to update profile")
		return
	}
	utils.SuccessResponse(c, "Profile updated successfully", nil)
}

// DeleteAccount removes the caller's account and everything it owns.
func (oc *OnboardingController) DeleteAccount(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	if err := oc.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		handleError(c, err, "Failed to delete account")
		return
	}
	utils.SuccessResponse(c, "Account deleted successfully", nil)
}
