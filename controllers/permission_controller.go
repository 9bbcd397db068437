package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

type PermissionController struct {
	linkService       *services.LinkService
	permissionService *services.PermissionService
}

func NewPermissionController(linkService *services.LinkService, permissionService *services.PermissionService) *PermissionController {
	return &PermissionController{
		linkService:       linkService,
		permissionService: permissionService,
	}
}

// ownedLink resolves the link path param and checks it belongs to the
// caller's workspace before any grant is touched.
func (pc *PermissionController) ownedLink(c *gin.Context) (primitive.ObjectID, bool) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return primitive.NilObjectID, false
	}
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return primitive.NilObjectID, false
	}
	if _, err := pc.linkService.GetLink(c.Request.Context(), wsID, linkID); err != nil {
		handleError(c, err, "Failed to resolve link")
		return primitive.NilObjectID, false
	}
	return linkID, true
}

// ListPermissions
func (pc *PermissionController) ListPermissions(c *gin.Context) {
	linkID, ok := pc.ownedLink(c)
	if !ok {
		return
	}

	perms, err := pc.permissionService.ListByLink(c.Request.Context(), linkID)
	if err != nil {
		handleError(c, err, "Failed to retrieve permissions")
		return
	}

	utils.SuccessResponse(c, "Permissions retrieved successfully", perms)
}

// CreatePermission grants a role to an email on a link.
func (pc *PermissionController) CreatePermission(c *gin.Context) {
	linkID, ok := pc.ownedLink(c)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required"`
		Role  string `json:"role" binding:"required"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	perm, err := pc.permissionService.CreatePermission(c.Request.Context(), linkID, req.Email, req.Role, req.Name)
	if err != nil {
		handleError(c, err, "Failed to create permission")
		return
	}

	utils.CreatedResponse(c, "Permission created successfully", perm)
}

// PromoteToEditor starts editor verification for an email.
func (pc *PermissionController) PromoteToEditor(c *gin.Context) {
	linkID, ok := pc.ownedLink(c)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	perm, err := pc.permissionService.PromoteToEditor(c.Request.Context(), linkID, req.Email)
	if err != nil {
		handleError(c, err, "Failed to promote permission")
		return
	}

	utils.SuccessResponse(c, "Verification code sent", gin.H{
		"email": perm.Email,
		"role":  perm.Role,
	})
}

// VerifyCode confirms an emailed verification code. This endpoint is
// public: the contributor holding the code has no session.
func (pc *PermissionController) VerifyCode(c *gin.Context) {
	linkID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid link ID format", nil)
		return
	}

	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := pc.permissionService.VerifyAndActivate(c.Request.Context(), linkID, req.Email, req.Code); err != nil {
		handleError(c, err, "Verification failed")
		return
	}

	utils.SuccessResponse(c, "Email verified successfully", nil)
}

// DeletePermission revokes a grant.
func (pc *PermissionController) DeletePermission(c *gin.Context) {
	linkID, ok := pc.ownedLink(c)
	if !ok {
		return
	}

	email := c.Query("email")
	if email == "" {
		utils.BadRequest(c, "Missing email", nil)
		return
	}

	if err := pc.permissionService.DeletePermission(c.Request.Context(), linkID, email); err != nil {
		handleError(c, err, "Failed to delete permission")
		return
	}
	utils.SuccessResponse(c, "Permission revoked successfully", nil)
}
