package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/controllers"
	"github.com/FoldlyDev/foldly-sub005/middleware"
)

// RegisterWorkspaceRoutes wires the owner-facing folder, file, link and
// permission management surface. Everything here requires a session and
// a provisioned account.
func RegisterWorkspaceRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	folderController := controllers.NewFolderController(container.FolderService, container.FileService)
	fileController := controllers.NewFileController(container.FileService)
	linkController := controllers.NewLinkController(container.LinkService)
	permissionController := controllers.NewPermissionController(container.LinkService, container.PermissionService)

	authed := rg.Group("")
	authed.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
	authed.Use(middleware.RequireAccount(container.UserService))

	folders := authed.Group("/folders")
	{
		folders.POST("", folderController.CreateFolder)
		folders.GET("", folderController.GetFolderContents) // workspace root
		folders.GET("/:id", folderController.GetFolder)
		folders.GET("/:id/contents", folderController.GetFolderContents)
		folders.GET("/:id/breadcrumb", folderController.GetBreadcrumb)
		folders.PATCH("/:id/rename", folderController.RenameFolder)
		folders.PATCH("/:id/move", folderController.MoveFolder)
		folders.DELETE("/:id", folderController.DeleteFolder)
	}

	files := authed.Group("/files")
	{
		files.GET("", fileController.ListFiles)
		files.GET("/search", fileController.SearchFiles)
		files.GET("/:id", fileController.GetFile)
		files.GET("/:id/download", fileController.GetDownloadURL)
		files.PATCH("/:id/rename", fileController.RenameFile)
		files.PATCH("/:id/move", fileController.MoveFile)
		files.DELETE("/:id", fileController.DeleteFile)
		files.POST("/bulk-delete", fileController.BulkDeleteFiles)
	}

	links := authed.Group("/links")
	{
		links.POST("", linkController.CreateLink)
		links.GET("", linkController.ListLinks)
		links.GET("/check-slug", linkController.CheckSlug)
		links.GET("/:id", linkController.GetLink)
		links.PATCH("/:id/slug", linkController.UpdateSlug)
		links.PATCH("/:id/active", linkController.SetActive)
		links.PATCH("/:id/config", linkController.UpdateConfig)
		links.PATCH("/:id/branding", linkController.UpdateBranding)
		links.DELETE("/:id", linkController.DeleteLink)

		links.GET("/:id/permissions", permissionController.ListPermissions)
		links.POST("/:id/permissions", permissionController.CreatePermission)
		links.POST("/:id/permissions/promote", permissionController.PromoteToEditor)
		links.DELETE("/:id/permissions", permissionController.DeletePermission)
	}
}
