/**
 * @description
 * API Route definitions.
 * Builds the service graph and sets up the router groups and handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/store
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/groceryscout/backend/internal/api/handlers"
	"github.com/groceryscout/backend/internal/api/middleware"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/services"
	"github.com/groceryscout/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services bundles the long-lived components behind the HTTP API. The caller owns
// Dispatcher (Start/Close) and Hub (Run).
type Services struct {
	Dispatcher    *services.Dispatcher
	Hub           *services.PriceDropHub
	Comparison    *services.ComparisonService
	Trending      *services.TrendingService
	Tracker       *services.PriceTracker
	Listings      *services.ListingService
	Saved         *services.SavedProductService
	Notifications *services.NotificationService
	Emitter       *services.NotificationEmitter
	Users         *services.UserService
}

// NewServices wires stores and services from the Postgres and Redis clients
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	listingStore := store.NewListingStore(db)
	savedStore := store.NewSavedProductStore(db)
	notificationStore := store.NewNotificationStore(db)

	dispatcher := services.NewDispatcher(cfg.Notify.QueueSize, cfg.Notify.Workers, cfg.Notify.RatePerSecond)
	hub := services.NewPriceDropHub(rdb, services.PriceDropChannel)
	emitter := services.NewNotificationEmitter(notificationStore, dispatcher)
	notifier := services.NewPriceDropNotifier(dispatcher, listingStore, savedStore, emitter, hub)
	tracker := services.NewPriceTracker(store.NewHistoryStore(db), notifier)

	return &Services{
		Dispatcher:    dispatcher,
		Hub:           hub,
		Comparison:    services.NewComparisonService(services.NewCatalogIndex(listingStore), cfg.Compare, emitter, cfg.Notify.SavingsAlertPercent),
		Trending:      services.NewTrendingService(services.NewRedisCounterStore(rdb), cfg.Search.TrendingDefaultLimit),
		Tracker:       tracker,
		Listings:      services.NewListingService(listingStore, tracker),
		Saved:         services.NewSavedProductService(savedStore),
		Notifications: services.NewNotificationService(notificationStore),
		Emitter:       emitter,
		Users:         services.NewUserService(store.NewUserStore(db)),
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *Services, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		// Keep serving anonymous routes; protected routes will fail
		logger.Error("Failed to init auth middleware: %v", err)
	}
	searchLimiter := middleware.NewRateLimiter(cfg.Search.RatePerSecond, cfg.Search.RateBurst)

	// 2. Initialize Handlers
	compareHandler := handlers.NewCompareHandler(svc.Comparison, svc.Users)
	searchHandler := handlers.NewSearchHandler(svc.Trending)
	listingHandler := handlers.NewListingHandler(svc.Tracker, svc.Listings, svc.Hub)
	savedHandler := handlers.NewSavedProductHandler(svc.Saved, svc.Users)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Users)
	eventHandler := handlers.NewEventHandler(svc.Emitter)
	userHandler := handlers.NewUserHandler(svc.Users)

	// 3. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1.Post("/compare", middleware.OptionalAuth(), compareHandler.Compare)
	v1.Post("/search", searchLimiter.Handler(), searchHandler.RecordSearch)
	v1.Get("/trending", searchHandler.GetTrending)

	listings := v1.Group("/listings")
	listings.Get("/stream", listingHandler.StreamPriceDrops)
	listings.Get("/:id/history", listingHandler.GetHistory)

	// Shopper Routes (Protected)
	user := v1.Group("/user", middleware.Protected())
	user.Post("/sync", userHandler.SyncUser)
	user.Get("/me", userHandler.GetMe)

	saved := v1.Group("/saved", middleware.Protected())
	saved.Get("", savedHandler.List)
	saved.Post("", savedHandler.Save)
	saved.Post("/toggle", savedHandler.Toggle)
	saved.Delete("/:productId", savedHandler.Remove)

	notifications := v1.Group("/notifications", middleware.Protected())
	notifications.Get("", notificationHandler.GetUnread)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	// Internal Routes (vendor tooling, admin)
	internal := v1.Group("/internal", middleware.InternalOnly(cfg.Services.InternalAPISecret))
	internal.Put("/listings/:id/price", listingHandler.UpdatePrice)
	internal.Post("/events/approval", eventHandler.Approval)
}
