package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/controllers"
)

// RegisterUploadRoutes wires the public contribution surface. No
// session middleware: contributors identify themselves per request.
func RegisterUploadRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	uploadController := controllers.NewUploadController(
		container.LinkService,
		container.PermissionService,
		container.FolderService,
		container.FileService,
		container.Config.MaxFileSize,
	)
	permissionController := controllers.NewPermissionController(container.LinkService, container.PermissionService)

	upload := rg.Group("/upload/:username/:slug")
	{
		upload.GET("", uploadController.GetLinkInfo)
		upload.POST("", uploadController.Upload)
		upload.POST("/folders", uploadController.CreateFolder)
	}

	// Code confirmation is public; the contributor holds only the code.
	rg.POST("/verify/:id", permissionController.VerifyCode)
}
