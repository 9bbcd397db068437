package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

type LinkController struct {
	linkService *services.LinkService
}

func NewLinkController(linkService *services.LinkService) *LinkController {
	return &LinkController{linkService: linkService}
}

// CreateLink
func (lc *LinkController) CreateLink(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Slug           string `json:"slug" binding:"required"`
		Name           string `json:"name"`
		IsPublic       bool   `json:"is_public"`
		WelcomeMessage string `json:"welcome_message"`
		RequireEmail   *bool  `json:"require_email"`
		RequireName    bool   `json:"require_name"`
		AllowFolders   bool   `json:"allow_folders"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	requireEmail := true
	if req.RequireEmail != nil {
		requireEmail = *req.RequireEmail
	}

	link, err := lc.linkService.CreateLink(c.Request.Context(), services.CreateLinkRequest{
		WorkspaceID: wsID,
		Slug:        req.Slug,
		Name:        req.Name,
		IsPublic:    req.IsPublic,
		Config: models.LinkConfig{
			WelcomeMessage: req.WelcomeMessage,
			RequireEmail:   requireEmail,
			RequireName:    req.RequireName,
			AllowFolders:   req.AllowFolders,
		},
	})
	if err != nil {
		handleError(c, err, "Failed to create link")
		return
	}

	utils.CreatedResponse(c, "Link created successfully", link)
}

// ListLinks
func (lc *LinkController) ListLinks(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	links, err := lc.linkService.ListByWorkspace(c.Request.Context(), wsID)
	if err != nil {
		handleError(c, err, "Failed to retrieve links")
		return
	}

	utils.SuccessResponse(c, "Links retrieved successfully", links)
}

// GetLink
func (lc *LinkController) GetLink(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	link, err := lc.linkService.GetLink(c.Request.Context(), wsID, linkID)
	if err != nil {
		handleError(c, err, "Failed to retrieve link")
		return
	}

	utils.SuccessResponse(c, "Link retrieved successfully", link)
}

// CheckSlug reports whether a slug is free to claim.
func (lc *LinkController) CheckSlug(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		utils.BadRequest(c, "Missing slug", nil)
		return
	}

	var excludeID *primitive.ObjectID
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid exclude_id format", nil)
			return
		}
		excludeID = &id
	}

	available, err := lc.linkService.IsSlugAvailable(c.Request.Context(), slug, excludeID)
	if err != nil {
		handleError(c, err, "Failed to check slug")
		return
	}

	utils.SuccessResponse(c, "Slug checked successfully", gin.H{"slug": slug, "available": available})
}

// UpdateSlug
func (lc *LinkController) UpdateSlug(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	var req struct {
		Slug string `json:"slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := lc.linkService.UpdateSlug(c.Request.Context(), wsID, linkID, req.Slug); err != nil {
		handleError(c, err, "Failed to update slug")
		return
	}
	utils.SuccessResponse(c, "Slug updated successfully", nil)
}

// SetActive pauses or resumes a link.
func (lc *LinkController) SetActive(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := lc.linkService.SetActive(c.Request.Context(), wsID, linkID, *req.Active); err != nil {
		handleError(c, err, "Failed to update link state")
		return
	}
	utils.SuccessResponse(c, "Link state updated successfully", nil)
}

// UpdateConfig
func (lc *LinkController) UpdateConfig(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	var patch services.LinkConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := lc.linkService.UpdateConfig(c.Request.Context(), wsID, linkID, patch); err != nil {
		handleError(c, err, "Failed to update link config")
		return
	}
	utils.SuccessResponse(c, "Link config updated successfully", nil)
}

// UpdateBranding
func (lc *LinkController) UpdateBranding(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	var patch services.LinkBrandingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := lc.linkService.UpdateBranding(c.Request.Context(), wsID, linkID, patch); err != nil {
		handleError(c, err, "Failed to update link branding")
		return
	}
	utils.SuccessResponse(c, "Link branding updated successfully", nil)
}

// DeleteLink
func (lc *LinkController) DeleteLink(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	if err := lc.linkService.DeleteLink(c.Request.Context(), wsID, linkID); err != nil {
		handleError(c, err, "Failed to delete link")
		return
	}
	utils.SuccessResponse(c, "Link deleted successfully", nil)
}
