package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/controllers"
	"github.com/FoldlyDev/foldly-sub005/middleware"
)

// RegisterWebhookRoutes wires callbacks from the scanning and thumbnail
// collaborators. They authenticate with the same bearer scheme.
func RegisterWebhookRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	fileController := controllers.NewFileController(container.FileService)

	webhooks := rg.Group("/webhooks")
	webhooks.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
	{
		webhooks.POST("/files/:id/scan-status", fileController.UpdateScanStatus)
		webhooks.POST("/files/:id/thumbnail", fileController.SetThumbnail)
	}
}
