package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/FoldlyDev/foldly-sub005/controllers"
	"github.com/FoldlyDev/foldly-sub005/middleware"
)

func RegisterAccountRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	onboardingController := controllers.NewOnboardingController(container.ProvisionService, container.UserService)

	account := rg.Group("/account")
	account.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
	{
		// Provisioning only needs token claims, not an existing account.
		account.POST("/provision", onboardingController.Provision)

		resolved := account.Group("")
		resolved.Use(middleware.RequireAccount(container.UserService))
		{
			resolved.GET("/me", onboardingController.Me)
			resolved.PATCH("/profile", onboardingController.UpdateProfile)
			resolved.DELETE("", onboardingController.DeleteAccount)
		}
	}
}
