package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// PriceDropChannel is the Redis pub/sub channel carrying price-drop events
const PriceDropChannel = "listing:price_drops"

// PriceDropHub publishes price-drop events to Redis and multiplexes the channel to
// many SSE clients without spawning a Redis subscription per HTTP request.
type PriceDropHub struct {
	redis       *redis.Client
	channelName string

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

func NewPriceDropHub(redis *redis.Client, channel string) *PriceDropHub {
	return &PriceDropHub{
		redis:       redis,
		channelName: channel,
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Run relays channel messages to subscribers until ctx is cancelled.
func (h *PriceDropHub) Run(ctx context.Context) {
	for {
		pubsub := h.redis.Subscribe(ctx, h.channelName)
		ch := pubsub.Channel(redis.WithChannelSize(16384))

	relay:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break relay
				}
				h.broadcast([]byte(msg.Payload))
			}
		}

		_ = pubsub.Close()

		// Avoid tight loop if Redis connection drops
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// Publish sends an event to every hub instance listening on the channel.
func (h *PriceDropHub) Publish(ctx context.Context, event models.PriceDropEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, h.channelName, payload).Err()
}

func (h *PriceDropHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub <- payload:
		default:
			// Subscriber is too slow; drop oldest message to keep hub responsive
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a new listener and returns a channel plus cleanup function.
func (h *PriceDropHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 512)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// PriceDropNotifier fans a price-drop event out to the hub and to every shopper who
// saved the product. All work happens on the dispatcher.
type PriceDropNotifier struct {
	dispatcher *Dispatcher
	listings   ListingStore
	saved      SavedProductStore
	emitter    *NotificationEmitter
	hub        *PriceDropHub
}

// NewPriceDropNotifier creates a notifier; hub may be nil.
func NewPriceDropNotifier(dispatcher *Dispatcher, listings ListingStore, saved SavedProductStore, emitter *NotificationEmitter, hub *PriceDropHub) *PriceDropNotifier {
	return &PriceDropNotifier{
		dispatcher: dispatcher,
		listings:   listings,
		saved:      saved,
		emitter:    emitter,
		hub:        hub,
	}
}

// PriceDropped implements PriceDropSink
func (n *PriceDropNotifier) PriceDropped(event models.PriceDropEvent) {
	n.dispatcher.Submit("price_drop:"+event.ListingID.String(), func(ctx context.Context) error {
		return n.deliver(ctx, event)
	})
}

func (n *PriceDropNotifier) deliver(ctx context.Context, event models.PriceDropEvent) error {
	if event.ProductID == uuid.Nil {
		listing, err := n.listings.GetByID(ctx, event.ListingID)
		if err != nil {
			return err
		}
		event.StoreID = listing.StoreID
		event.ProductID = listing.ProductID
	}

	if n.hub != nil {
		if err := n.hub.Publish(ctx, event); err != nil {
			logger.Error("PriceDropNotifier: Failed to publish drop for listing %s: %v", event.ListingID, err)
		}
	}

	userIDs, err := n.saved.SaverIDs(ctx, event.ProductID)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	name, err := n.saved.ProductName(ctx, event.ProductID)
	if err != nil {
		logger.Warn("PriceDropNotifier: product name lookup failed for %s: %v", event.ProductID, err)
	}

	for _, userID := range userIDs {
		n.emitter.PriceDrop(userID, name, event)
	}

	logger.Info("PriceDropNotifier: Queued %d price drop notifications for listing %s", len(userIDs), event.ListingID)
	return nil
}
