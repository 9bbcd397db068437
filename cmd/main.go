package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FoldlyDev/foldly-sub005/config"
	"github.com/FoldlyDev/foldly-sub005/jobs"
	"github.com/FoldlyDev/foldly-sub005/routes"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production; the environment is already populated.
		log.Println("no .env file found, using system environment variables")
	}

	config.LoadConfig()
	cfg := config.AppConfig

	utils.InitLogger(cfg.Env)

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		utils.LogFatal("failed to connect to MongoDB", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			utils.LogWarning("failed to disconnect MongoDB: " + err.Error())
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		utils.LogFatal("failed to ping MongoDB", err)
	}
	utils.LogInfo("connected to MongoDB")

	container, err := routes.NewServiceContainer(mongoClient.Database(cfg.DatabaseName), cfg)
	if err != nil {
		utils.LogFatal("failed to initialize services", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	api := router.Group("/api")
	routes.SetupRoutes(api, container)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	sweeper := jobs.NewVerificationSweeper(container.PermissionService, cfg.CodeSweepInterval)
	if err := sweeper.Start(); err != nil {
		utils.LogFatal("failed to start verification sweeper", err)
	}
	defer sweeper.Stop()

	utils.LogInfo("starting server on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogFatal("failed to start server", err)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
