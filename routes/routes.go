package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/config"
	"github.com/FoldlyDev/foldly-sub005/services"
)

// ServiceContainer holds every service the route handlers depend on.
type ServiceContainer struct {
	DB                *mongo.Database
	Config            *config.Config
	StorageService    *services.StorageService
	IdentityService   *services.IdentityService
	UserService       *services.UserService
	FolderService     *services.FolderService
	FileService       *services.FileService
	LinkService       *services.LinkService
	PermissionService *services.PermissionService
	ProvisionService  *services.ProvisionService
}

// NewServiceContainer wires the full service graph.
func NewServiceContainer(db *mongo.Database, cfg *config.Config) (*ServiceContainer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storageService, err := services.NewStorageService(ctx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
	if err != nil {
		return nil, err
	}

	identityService := services.NewIdentityService(cfg.IdentityAPIURL, cfg.IdentityAPIKey)
	notificationService := services.NewNotificationService(db, cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.FromEmail)

	userService := services.NewUserService(db, storageService)
	folderService := services.NewFolderService(db)
	fileService := services.NewFileService(db, folderService, storageService, cfg.MaxUserStorage)
	linkService := services.NewLinkService(db)
	permissionService := services.NewPermissionService(db, notificationService, cfg.VerificationCodeTTL)
	provisionService := services.NewProvisionService(db, linkService, identityService, cfg.ProvisionAttempts)

	return &ServiceContainer{
		DB:                db,
		Config:            cfg,
		StorageService:    storageService,
		IdentityService:   identityService,
		UserService:       userService,
		FolderService:     folderService,
		FileService:       fileService,
		LinkService:       linkService,
		PermissionService: permissionService,
		ProvisionService:  provisionService,
	}, nil
}

// SetupRoutes registers every route group on the API router.
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterAccountRoutes(api, container)
	RegisterWorkspaceRoutes(api, container)
	RegisterUploadRoutes(api, container)
	RegisterWebhookRoutes(api, container)
}
