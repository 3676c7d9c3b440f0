package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/skyvault/backend/internal/config"
	"github.com/skyvault/backend/internal/database"
	"github.com/skyvault/backend/internal/handlers"
	"github.com/skyvault/backend/internal/middleware"
	"github.com/skyvault/backend/internal/services"
	"github.com/skyvault/backend/internal/storage"
	"github.com/skyvault/backend/pkg/logger"
	"github.com/skyvault/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	var store storage.ObjectStore
	switch cfg.Storage.Driver {
	case "s3":
		store, err = storage.NewS3Client(cfg.S3)
	default:
		store, err = storage.NewMinIOClient(cfg.MinIO)
	}
	if err != nil {
		log.Fatalf("object store initialization failed: %v", err)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring bucket: %v", err)
	}

	namespaceService := services.NewNamespaceService(db)
	objectService := services.NewObjectService(db, store, cfg.Upload)

	authHandler := handlers.NewAuthHandler(db)
	filesHandler := handlers.NewFilesHandler(namespaceService, objectService)
	setupHandler := handlers.NewSetupHandler(store)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/raw/:fileId", filesHandler.Raw)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/setup", authHandler.Setup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/status", authHandler.Status)

	fileRoutes := api.Group("/files", middleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Post("/folder", filesHandler.CreateFolder)
	fileRoutes.Post("/upload", filesHandler.UploadInit)
	fileRoutes.Post("/upload/complete", filesHandler.UploadComplete)
	fileRoutes.Post("/download", filesHandler.DownloadURL)
	fileRoutes.Post("/delete", filesHandler.Delete)

	setupRoutes := api.Group("/setup", middleware.RequireAuth)
	setupRoutes.Post("/cors", setupHandler.ConfigureCORS)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"storage_driver": cfg.Storage.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
