package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/middleware"
	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

type FolderController struct {
	folderService *services.FolderService
	fileService   *services.FileService
}

func NewFolderController(folderService *services.FolderService, fileService *services.FileService) *FolderController {
	return &FolderController{
		folderService: folderService,
		fileService:   fileService,
	}
}

func workspaceFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	wsID, ok := middleware.WorkspaceID(c)
	if !ok {
		utils.Unauthorized(c, "Workspace not resolved")
	}
	return wsID, ok
}

func userFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.Unauthorized(c, "Account not resolved")
	}
	return userID, ok
}

func optionalObjectID(raw *string) (*primitive.ObjectID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// CreateFolder
func (fc *FolderController) CreateFolder(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name     string  `json:"name" binding:"required,min=1,max=255"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}
	parentID, ok := optionalObjectID(req.ParentID)
	if !ok {
		utils.BadRequest(c, "Invalid parent folder ID format", nil)
		return
	}

	folder, err := fc.folderService.CreateFolder(c.Request.Context(), wsID, req.Name, parentID, nil, "", "")
	if err != nil {
		handleError(c, err, "Failed to create folder")
		return
	}

	utils.CreatedResponse(c, "Folder created successfully", folder)
}

// GetFolder
func (fc *FolderController) GetFolder(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	folderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid folder ID format", nil)
		return
	}

	folder, err := fc.folderService.GetFolder(c.Request.Context(), wsID, folderID)
	if err != nil {
		handleError(c, err, "Failed to retrieve folder")
		return
	}

	utils.SuccessResponse(c, "Folder retrieved successfully", folder)
}

// GetFolderContents lists subfolders and files of one folder; the root
// when no id is given.
func (fc *FolderController) GetFolderContents(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	var parentID *primitive.ObjectID
	if raw := c.Param("id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid folder ID format", nil)
			return
		}
		parentID = &id
	}

	folders, err := fc.folderService.ListChildren(c.Request.Context(), wsID, parentID)
	if err != nil {
		handleError(c, err, "Failed to retrieve folder contents")
		return
	}
	files, err := fc.fileService.ListByFolder(c.Request.Context(), wsID, parentID)
	if err != nil {
		handleError(c, err, "Failed to retrieve folder contents")
		return
	}

	utils.SuccessResponse(c, "Folder contents retrieved successfully", gin.H{
		"folders": folders,
		"files":   files,
	})
}

// GetBreadcrumb returns root-to-folder ancestry for navigation.
func (fc *FolderController) GetBreadcrumb(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	folderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid folder ID format", nil)
		return
	}

	path, err := fc.folderService.GetAncestorPath(c.Request.Context(), wsID, folderID)
	if err != nil {
		handleError(c, err, "Failed to retrieve folder path")
		return
	}

	utils.SuccessResponse(c, "Folder path retrieved successfully", path)
}

// RenameFolder
func (fc *FolderController) RenameFolder(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	folderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid folder ID format", nil)
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := fc.folderService.RenameFolder(c.Request.Context(), wsID, folderID, req.Name); err != nil {
		handleError(c, err, "Failed to rename folder")
		return
	}
	utils.SuccessResponse(c, "Folder renamed successfully", nil)
}

// MoveFolder
func (fc *FolderController) MoveFolder(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	folderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid folder ID format", nil)
		return
	}

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}
	parentID, ok := optionalObjectID(req.ParentID)
	if !ok {
		utils.BadRequest(c, "Invalid parent folder ID format", nil)
		return
	}

	if err := fc.folderService.MoveFolder(c.Request.Context(), wsID, folderID, parentID); err != nil {
		handleError(c, err, "Failed to move folder")
		return
	}
	utils.SuccessResponse(c, "Folder moved successfully", nil)
}

// DeleteFolder
func (fc *FolderController) DeleteFolder(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	folderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid folder ID format", nil)
		return
	}

	if err := fc.folderService.DeleteFolder(c.Request.Context(), wsID, folderID); err != nil {
		handleError(c, err, "Failed to delete folder")
		return
	}
	utils.SuccessResponse(c, "Folder deleted successfully", nil)
}
