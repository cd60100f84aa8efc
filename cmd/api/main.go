/**
 * @description
 * Main entry point for the GroceryScout Backend API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/groceryscout/backend/internal/config: Config loader
 * - github.com/groceryscout/backend/internal/db: Database connections
 * - github.com/groceryscout/backend/internal/api: Routes and service graph
 *
 * @notes
 * - Connects to Postgres and Redis on startup.
 * - Sets up basic middleware (CORS, Logger, Recover).
 * - Drains the notification dispatcher on shutdown.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/groceryscout/backend/internal/api"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/db"
	"github.com/groceryscout/backend/internal/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}
	if cfg.Server.Env == "development" {
		if err := db.Migrate(pgDB); err != nil {
			logger.Fatal("Failed to migrate schema: %v", err)
		}
	}

	// Redis (trending counters & price-drop pub/sub)
	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}

	// 3. Background components
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := api.NewServices(pgDB, redisClient, cfg)
	svc.Dispatcher.Start(ctx)
	go svc.Hub.Run(ctx)

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "GroceryScout API",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 5. Global Middleware
	app.Use(recover.New())     // Panic recovery
	app.Use(fiberLogger.New()) // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// 6. Routes
	api.SetupRoutes(app, svc, cfg)

	// 7. Start Server
	go func() {
		logger.Info("🚀 Starting GroceryScout Backend on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during HTTP shutdown: %v", err)
	}

	// Pending notifications still flush; then stop the hub relay
	svc.Dispatcher.Close()
	cancel()

	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis: %v", err)
	}
	logger.Info("API exited.")
}
