package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avyhea/avyhea-backend/config"
	"github.com/avyhea/avyhea-backend/internal/app/controller"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/internal/app/service"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/avyhea/avyhea-backend/internal/router"
	"github.com/avyhea/avyhea-backend/internal/scheduler"
	"github.com/avyhea/avyhea-backend/internal/storage"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"github.com/avyhea/avyhea-backend/pkg/mailer"
	appredis "github.com/avyhea/avyhea-backend/pkg/redis"
)

// redisBlacklist adapts the redis package to the auth service's
// TokenBlacklist interface.
type redisBlacklist struct{}

func (redisBlacklist) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	return appredis.BlacklistToken(ctx, token, expiry)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting AVYHEA Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional: without it, logout simply skips token revocation
	var blacklist service.TokenBlacklist
	if err := appredis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		blacklist = redisBlacklist{}
		defer appredis.Close()
	}

	// Mail client; dev mode logs messages instead of sending them
	mailClient, err := mailer.NewClient(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
		DevMode:  cfg.Server.Environment == "development" || cfg.SMTP.From == "",
	})
	if err != nil {
		logger.Fatal("Failed to configure mail client", err)
	}

	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	resetRepo := repository.NewPasswordResetRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	categoryService := service.NewCategoryService(categoryRepo, productRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, userRepo, mailClient, db.GetDB())
	reviewService := service.NewReviewService(reviewRepo, productRepo, orderRepo)
	resetService := service.NewPasswordResetService(resetRepo, userRepo, mailClient)

	// Initialize controllers
	authController := controller.NewAuthController(authService, resetService, cfg.JWT.AccessTokenExpiry)
	categoryController := controller.NewCategoryController(categoryService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	reviewController := controller.NewReviewController(reviewService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, appredis.GetClient())

	// Abandoned carts and expired reset tokens
	cleanup := scheduler.NewCleanupScheduler(cartRepo, resetRepo)
	if err := cleanup.Start(); err != nil {
		logger.Error("Failed to start cleanup scheduler", err)
	}
	defer cleanup.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		categoryController,
		productController,
		cartController,
		orderController,
		reviewController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
