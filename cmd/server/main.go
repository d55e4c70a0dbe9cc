package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen-collab/internal/config"
	"kitchen-collab/internal/db"
	"kitchen-collab/internal/middleware"
	"kitchen-collab/internal/presence"
	"kitchen-collab/internal/project"
	"kitchen-collab/internal/storage"
	"kitchen-collab/internal/user"
	"kitchen-collab/internal/worker"
	"kitchen-collab/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData()
	}

	// Initialize Redis
	redis.InitRedis()
	cache := redis.NewCache(redis.RedisClient)

	// Object storage (optional: presence and project flows work without it)
	var objectStore *storage.R2Store
	if config.AppConfig.R2BucketName != "" {
		var err error
		objectStore, err = storage.NewR2Store(context.Background(), storage.R2Config{
			AccountID:     config.AppConfig.R2AccountID,
			AccessKeyID:   config.AppConfig.R2AccessKeyID,
			SecretKey:     config.AppConfig.R2SecretKey,
			Bucket:        config.AppConfig.R2BucketName,
			PublicURL:     config.AppConfig.R2PublicURL,
			PresignExpiry: config.AppConfig.R2PresignExpiry,
		})
		if err != nil {
			log.Fatalf("error initializing object storage %v", err)
		}
	} else {
		log.Println("Object storage not configured. Upload signing disabled.")
	}

	// Background worker pool
	pool := worker.NewPool(4)
	defer pool.Shutdown()

	// Initialize repository
	userRepo := user.NewRepository(db.AppDb)
	projectRepo := project.NewRepository(db.AppDb)
	presenceRepo := presence.NewRepository(db.AppDb)
	// Initialize service
	userService := user.NewService(userRepo)
	var store project.ObjectStore
	if objectStore != nil {
		store = objectStore
	}
	projectService := project.NewService(projectRepo, cache, store, pool)
	presenceService := presence.NewService(
		presenceRepo,
		config.AppConfig.PresenceWindow,
		config.AppConfig.PresenceExpiry,
	)
	// Initialize handler
	userHandler := user.NewHandler(userService)
	projectHandler := project.NewHandler(projectService)
	presenceHandler := presence.NewHandler(presenceService)
	var storageHandler *storage.Handler
	if objectStore != nil {
		storageHandler = storage.NewHandler(objectStore)
	}

	authMiddleware := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.POST("/refresh", userHandler.RefreshToken)
	router.DELETE("/logout", authMiddleware.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", authMiddleware.AuthMiddleWare(), userHandler.GetProfile)

	authed := router.Group("/", authMiddleware.AuthMiddleWare())

	// Project routes
	authed.POST("/projects", projectHandler.CreateProject)
	authed.GET("/projects", projectHandler.ListProjects)
	authed.GET("/projects/:id", projectHandler.ShowProject)
	authed.PUT("/projects/:id/status", projectHandler.UpdateProjectStatus)
	authed.DELETE("/projects/:id", projectHandler.DeleteProject)

	// Section routes
	authed.GET("/projects/:id/sections", projectHandler.ListSections)
	authed.GET("/projects/:id/sections/eligible", projectHandler.ListEligibleSections)
	authed.POST("/projects/:id/sections", projectHandler.CreateSection)
	authed.PUT("/projects/:id/sections/:sectionId", projectHandler.UpdateSection)
	authed.PUT("/projects/:id/sections", projectHandler.ReorderSections)
	authed.DELETE("/projects/:id/sections/:sectionId", projectHandler.DeleteSection)

	// Script routes
	authed.PUT("/projects/:id/script", projectHandler.SetScript)
	authed.GET("/projects/:id/script", projectHandler.GetScript)

	// Proposal routes
	authed.POST("/sections/:sectionId/proposals", projectHandler.CreateProposal)
	authed.GET("/sections/:sectionId/proposals", projectHandler.ListSectionProposals)
	authed.GET("/projects/:id/proposals", projectHandler.ListProjectProposals)
	authed.PUT("/proposals/:proposalId/status", projectHandler.ReviewProposal)
	authed.POST("/proposals/:proposalId/apply", projectHandler.ApplyProposal)

	// Image routes
	authed.POST("/projects/:id/images", projectHandler.ConfirmImageUpload)
	authed.GET("/projects/:id/images", projectHandler.ListImages)
	authed.GET("/projects/:id/images/selected", projectHandler.ListSelectedImages)
	authed.GET("/projects/:id/images/mine/count", projectHandler.MyUploadCount)
	authed.PUT("/images/:imageId/selection", projectHandler.SelectImage)
	authed.PUT("/images/:imageId/comment", projectHandler.UpdateImageComment)
	authed.DELETE("/images/:imageId", projectHandler.DeleteImage)

	// Presence routes
	authed.POST("/projects/:id/presence/heartbeat", presenceHandler.Heartbeat)
	authed.POST("/projects/:id/presence/status", presenceHandler.SetStatus)
	authed.GET("/projects/:id/presence", presenceHandler.List)

	// Upload signing
	if storageHandler != nil {
		authed.POST("/uploads/sign", storageHandler.SignUpload)
	}

	// Periodic stale-presence sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(config.AppConfig.PresenceSweepTick)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				pool.Submit(func(ctx context.Context) error {
					deleted, err := presenceService.Sweep(ctx)
					if err != nil {
						return err
					}
					if deleted > 0 {
						log.Printf("[SWEEP] removed %d stale presence rows", deleted)
					}
					return nil
				})
			}
		}
	}()

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
