package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

type FileController struct {
	fileService *services.FileService
}

func NewFileController(fileService *services.FileService) *FileController {
	return &FileController{fileService: fileService}
}

// ListFiles lists workspace files, optionally filtered by folder,
// uploader email, or an upload date window.
func (fc *FileController) ListFiles(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if email := c.Query("uploader_email"); email != "" {
		files, err := fc.fileService.ListByUploaderEmail(ctx, wsID, email)
		if err != nil {
			handleError(c, err, "Failed to retrieve files")
			return
		}
		utils.SuccessResponse(c, "Files retrieved successfully", files)
		return
	}

	if from := c.Query("from"); from != "" {
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			utils.BadRequest(c, "Invalid 'from' timestamp, expected RFC3339", nil)
			return
		}
		var end *time.Time
		if to := c.Query("to"); to != "" {
			t, err := time.Parse(time.RFC3339, to)
			if err != nil {
				utils.BadRequest(c, "Invalid 'to' timestamp, expected RFC3339", nil)
				return
			}
			end = &t
		}
		files, err := fc.fileService.ListByDateRange(ctx, wsID, start, end)
		if err != nil {
			handleError(c, err, "Failed to retrieve files")
			return
		}
		utils.SuccessResponse(c, "Files retrieved successfully", files)
		return
	}

	if raw := c.Query("folder_id"); raw != "" {
		folderID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid folder ID format", nil)
			return
		}
		files, err := fc.fileService.ListByFolder(ctx, wsID, &folderID)
		if err != nil {
			handleError(c, err, "Failed to retrieve files")
			return
		}
		utils.SuccessResponse(c, "Files retrieved successfully", files)
		return
	}

	files, err := fc.fileService.ListByWorkspace(ctx, wsID)
	if err != nil {
		handleError(c, err, "Failed to retrieve files")
		return
	}
	utils.SuccessResponse(c, "Files retrieved successfully", files)
}

// SearchFiles
func (fc *FileController) SearchFiles(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "Missing search query", nil)
		return
	}

	files, err := fc.fileService.Search(c.Request.Context(), wsID, query, 50)
	if err != nil {
		handleError(c, err, "Search failed")
		return
	}

	utils.SuccessResponse(c, "Search completed successfully", files)
}

// GetFile
func (fc *FileController) GetFile(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	file, err := fc.fileService.GetFile(c.Request.Context(), wsID, fileID)
	if err != nil {
		handleError(c, err, "Failed to retrieve file")
		return
	}

	utils.SuccessResponse(c, "File retrieved successfully", file)
}

// GetDownloadURL hands back a time-limited signed URL instead of
// proxying the payload.
func (fc *FileController) GetDownloadURL(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	url, err := fc.fileService.DownloadURL(c.Request.Context(), wsID, fileID, 15*time.Minute)
	if err != nil {
		handleError(c, err, "Failed to generate download URL")
		return
	}

	utils.SuccessResponse(c, "Download URL generated successfully", gin.H{
		"url":        url,
		"expires_in": int((15 * time.Minute).Seconds()),
	})
}

// RenameFile
func (fc *FileController) RenameFile(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := fc.fileService.RenameFile(c.Request.Context(), wsID, fileID, req.Name); err != nil {
		handleError(c, err, "Failed to rename file")
		return
	}
	utils.SuccessResponse(c, "File renamed successfully", nil)
}

// MoveFile
func (fc *FileController) MoveFile(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
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

	if err := fc.fileService.MoveFile(c.Request.Context(), wsID, fileID, parentID); err != nil {
		handleError(c, err, "Failed to move file")
		return
	}
	utils.SuccessResponse(c, "File moved successfully", nil)
}

// DeleteFile
func (fc *FileController) DeleteFile(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	if err := fc.fileService.DeleteFile(c.Request.Context(), wsID, fileID); err != nil {
		handleError(c, err, "Failed to delete file")
		return
	}
	utils.SuccessResponse(c, "File deleted successfully", nil)
}

// BulkDeleteFiles
func (fc *FileController) BulkDeleteFiles(c *gin.Context) {
	wsID, ok := workspaceFromContext(c)
	if !ok {
		return
	}

	var req struct {
		FileIDs []string `json:"file_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.FileIDs))
	for _, raw := range req.FileIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid file ID format: "+raw, nil)
			return
		}
		ids = append(ids, id)
	}

	deleted, err := fc.fileService.BulkDelete(c.Request.Context(), wsID, ids)
	if err != nil {
		// Partial progress still matters to the caller.
		handleError(c, err, fmt.Sprintf("Bulk delete stopped after %d files", deleted))
		return
	}
	utils.SuccessResponse(c, "Files deleted successfully", gin.H{"deleted": deleted})
}

// UpdateScanStatus is called by the scanning collaborator's webhook.
func (fc *FileController) UpdateScanStatus(c *gin.Context) {
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := fc.fileService.UpdateScanStatus(c.Request.Context(), fileID, req.Status); err != nil {
		handleError(c, err, "Failed to update scan status")
		return
	}
	utils.SuccessResponse(c, "Scan status updated successfully", nil)
}

// SetThumbnail is called by the thumbnail collaborator's webhook.
func (fc *FileController) SetThumbnail(c *gin.Context) {
	fileID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid file ID format", nil)
		return
	}

	var req struct {
		ThumbnailKey string `json:"thumbnail_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if err := fc.fileService.SetThumbnailKey(c.Request.Context(), fileID, req.ThumbnailKey); err != nil {
		handleError(c, err, "Failed to set thumbnail")
		return
	}
	utils.SuccessResponse(c, "Thumbnail updated successfully", nil)
}
