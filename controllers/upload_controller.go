package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// UploadController serves the public contribution surface at
// /{username}/{slug}. Contributors have no session; they are identified
// by the email they submit with each request.
type UploadController struct {
	linkService       *services.LinkService
	permissionService *services.PermissionService
	folderService     *services.FolderService
	fileService       *services.FileService
	maxFileSize       int64
}

func NewUploadController(
	linkService *services.LinkService,
	permissionService *services.PermissionService,
	folderService *services.FolderService,
	fileService *services.FileService,
	maxFileSize int64,
) *UploadController {
	return &UploadController{
		linkService:       linkService,
		permissionService: permissionService,
		folderService:     folderService,
		fileService:       fileService,
		maxFileSize:       maxFileSize,
	}
}

// GetLinkInfo describes an upload page: branding, welcome message and
// which fields the form must collect. Nothing owner-private leaks here.
func (uc *UploadController) GetLinkInfo(c *gin.Context) {
	link, err := uc.linkService.ResolveUpload(c.Request.Context(), c.Param("username"), c.Param("slug"))
	if err != nil {
		handleError(c, err, "Failed to resolve upload link")
		return
	}

	utils.SuccessResponse(c, "Link resolved successfully", gin.H{
		"name":            link.Name,
		"is_active":       link.IsActive,
		"is_public":       link.IsPublic,
		"welcome_message": link.Config.WelcomeMessage,
		"require_email":   link.Config.RequireEmail,
		"require_name":    link.Config.RequireName,
		"allow_folders":   link.Config.AllowFolders,
		"branding":        link.Branding,
	})
}

// Upload accepts one multipart file from a contributor.
func (uc *UploadController) Upload(c *gin.Context) {
	link, err := uc.linkService.ResolveUpload(c.Request.Context(), c.Param("username"), c.Param("slug"))
	if err != nil {
		handleError(c, err, "Failed to resolve upload link")
		return
	}

	email := c.PostForm("email")
	name := c.PostForm("name")
	message := c.PostForm("message")

	if link.Config.RequireEmail && email == "" {
		utils.BadRequest(c, "Email is required for this link", nil)
		return
	}
	if link.Config.RequireName && name == "" {
		utils.BadRequest(c, "Name is required for this link", nil)
		return
	}

	perm, err := uc.permissionService.AuthorizeUpload(c.Request.Context(), link, email, name)
	if err != nil {
		handleError(c, err, "Upload not authorized")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Missing file", err.Error())
		return
	}
	if err := utils.ValidateFileHeader(header, uc.maxFileSize); err != nil {
		utils.PayloadTooLarge(c, err.Error())
		return
	}

	var parentID *primitive.ObjectID
	if raw := c.PostForm("folder_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid folder ID format", nil)
			return
		}
		folder, err := uc.folderService.GetFolder(c.Request.Context(), link.WorkspaceID, id)
		if err != nil {
			handleError(c, err, "Failed to resolve target folder")
			return
		}
		// Contributors may only place files inside this link's tree.
		if folder.LinkID == nil || *folder.LinkID != link.ID {
			utils.Forbidden(c, "Folder does not belong to this link")
			return
		}
		parentID = &folder.ID
	}

	src, err := header.Open()
	if err != nil {
		utils.InternalServerError(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	// Colliding names from different contributors get suffixed rather
	// than rejected.
	filename, err := uc.fileService.NextAvailableName(c.Request.Context(), link.WorkspaceID, parentID, header.Filename)
	if err != nil {
		handleError(c, err, "Failed to allocate filename")
		return
	}

	linkID := link.ID
	file, err := uc.fileService.CreateFile(c.Request.Context(), services.CreateFileRequest{
		WorkspaceID:     link.WorkspaceID,
		ParentID:        parentID,
		LinkID:          &linkID,
		Name:            filename,
		Size:            header.Size,
		MimeType:        header.Header.Get("Content-Type"),
		UploaderEmail:   perm.Email,
		UploaderName:    name,
		UploaderMessage: message,
		Body:            src,
	})
	if err != nil {
		handleError(c, err, "Failed to store upload")
		return
	}

	utils.CreatedResponse(c, "File uploaded successfully", gin.H{
		"id":          file.ID,
		"name":        file.Name,
		"size":        file.Size,
		"uploaded_at": file.UploadedAt,
	})
}

// CreateFolder lets a verified editor organize a link's tree without an
// account. Unverified editors act as plain uploaders and are refused.
func (uc *UploadController) CreateFolder(c *gin.Context) {
	link, err := uc.linkService.ResolveUpload(c.Request.Context(), c.Param("username"), c.Param("slug"))
	if err != nil {
		handleError(c, err, "Failed to resolve upload link")
		return
	}
	if !link.Config.AllowFolders {
		utils.Forbidden(c, "This link does not accept folders")
		return
	}

	var req struct {
		Email    string  `json:"email" binding:"required"`
		Name     string  `json:"name" binding:"required,min=1,max=255"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	perm, err := uc.permissionService.AuthorizeUpload(c.Request.Context(), link, req.Email, "")
	if err != nil {
		handleError(c, err, "Not authorized")
		return
	}
	if !perm.HasAtLeast(models.RoleEditor) {
		utils.Forbidden(c, "Editor verification required to create folders")
		return
	}

	parentID, ok := optionalObjectID(req.ParentID)
	if !ok {
		utils.BadRequest(c, "Invalid parent folder ID format", nil)
		return
	}
	if parentID != nil {
		parent, err := uc.folderService.GetFolder(c.Request.Context(), link.WorkspaceID, *parentID)
		if err != nil {
			handleError(c, err, "Failed to resolve parent folder")
			return
		}
		if parent.LinkID == nil || *parent.LinkID != link.ID {
			utils.Forbidden(c, "Folder does not belong to this link")
			return
		}
	}

	linkID := link.ID
	folder, err := uc.folderService.CreateFolder(c.Request.Context(), link.WorkspaceID, req.Name, parentID, &linkID, perm.Email, perm.Name)
	if err != nil {
		handleError(c, err, "Failed to create folder")
		return
	}

	utils.CreatedResponse(c, "Folder created successfully", folder)
}
