/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Ingesting vendor price updates via WebSocket and applying them to listings.
 * 2. Delivering price-drop notifications and hub events for those updates.
 * 3. Keeping the feed subscribed to every active store.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/vendorfeed
 * - backend/internal/services
 * - backend/internal/store
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/db"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/services"
	"github.com/groceryscout/backend/internal/store"
	"github.com/groceryscout/backend/internal/vendorfeed"
)

const subscriptionRefresh = 2 * time.Minute

func main() {
	logger.Info("🔥 Starting GroceryScout Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Initialize Services
	listingStore := store.NewListingStore(pgDB)
	dispatcher := services.NewDispatcher(cfg.Notify.QueueSize, cfg.Notify.Workers, cfg.Notify.RatePerSecond)
	dispatcher.Start(ctx)

	emitter := services.NewNotificationEmitter(store.NewNotificationStore(pgDB), dispatcher)
	hub := services.NewPriceDropHub(redisClient, services.PriceDropChannel)
	notifier := services.NewPriceDropNotifier(dispatcher, listingStore, store.NewSavedProductStore(pgDB), emitter, hub)
	tracker := services.NewPriceTracker(store.NewHistoryStore(pgDB), notifier)
	listingService := services.NewListingService(listingStore, tracker)

	msgHandler := vendorfeed.NewMessageHandler(listingService)
	wsClient := vendorfeed.NewClient(cfg, msgHandler)

	// 5. Connect WebSocket
	if err := wsClient.Connect(ctx); err != nil {
		logger.Fatal("❌ Vendor feed connection failed: %v", err)
	}

	// 6. Subscription Loop
	go func() {
		ticker := time.NewTicker(subscriptionRefresh)
		defer ticker.Stop()

		syncSubscriptions(ctx, listingStore, wsClient)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				syncSubscriptions(ctx, listingStore, wsClient)
			}
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	// Stop ingesting first, then flush queued notifications
	if err := wsClient.Close(); err != nil {
		logger.Error("Error closing WebSocket: %v", err)
	}
	dispatcher.Close()
	cancel()

	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis: %v", err)
	}

	logger.Info("Worker exited.")
}

// syncSubscriptions subscribes the feed to any newly activated store
func syncSubscriptions(ctx context.Context, listings *store.ListingStore, ws *vendorfeed.Client) {
	ids, err := listings.ActiveStoreIDs(ctx)
	if err != nil {
		logger.Error("Failed to load active stores: %v", err)
		return
	}

	storeIDs := make([]string, len(ids))
	for i, id := range ids {
		storeIDs[i] = id.String()
	}

	if err := ws.Subscribe(storeIDs); err != nil {
		logger.Error("Failed to subscribe to stores: %v", err)
		return
	}
	logger.Info("✅ Vendor feed tracking %d active stores", len(storeIDs))
}
