/**
 * @description
 * WebSocket client for the vendor price feed.
 * Manages the persistent connection, store subscriptions, and keep-alive logic.
 *
 * Key features:
 * - Connects to VENDOR_FEED_URL.
 * - Handles automatic reconnection with exponential backoff.
 * - Re-sends store subscriptions after a reconnect.
 * - Thread-safe writing.
 *
 * @dependencies
 * - github.com/gorilla/websocket
 * - backend/internal/config
 */

package vendorfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
)

const (
	WriteWait         = 10 * time.Second
	PongWait          = 60 * time.Second
	PingPeriod        = (PongWait * 9) / 10
	MaxConnectRetries = 5
)

// SubscriptionMessage asks the feed for the listed stores' price events
type SubscriptionMessage struct {
	Type     string   `json:"type"` // "stores"
	StoreIDs []string `json:"store_ids"`
}

type Client struct {
	url     string
	conn    *websocket.Conn
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
	handler *MessageHandler

	initialBackoff time.Duration

	// subscriptions holds the set of store ids to track
	subscriptions map[string]struct{}
	subMu         sync.Mutex

	// reconnecting prevents multiple simultaneous reconnection attempts
	reconnecting bool
	reconnectMu  sync.Mutex
}

func NewClient(cfg *config.Config, handler *MessageHandler) *Client {
	return &Client{
		url:            cfg.Services.VendorFeedURL,
		handler:        handler,
		done:           make(chan struct{}),
		initialBackoff: time.Second,
		subscriptions:  make(map[string]struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (c *Client) Connect(ctx context.Context) error {
	if c.url == "" {
		return fmt.Errorf("vendor feed url is not configured")
	}
	return c.connectWithRetry(ctx)
}

func (c *Client) connectWithRetry(ctx context.Context) error {
	var err error
	backoff := c.initialBackoff

	for i := 0; i < MaxConnectRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return fmt.Errorf("client closed")
		default:
		}

		logger.Info("Connecting to vendor feed: %s (Attempt %d)", c.url, i+1)
		var conn *websocket.Conn
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			logger.Info("✅ Connected to vendor feed")

			// Resubscribe if we have existing subscriptions (reconnection scenario)
			if stores := c.subscribed(); len(stores) > 0 {
				if err := c.sendSubscribe(stores); err != nil {
					logger.Error("VendorFeed: resubscribe failed: %v", err)
				}
			}

			go c.readLoop(ctx, conn)
			go c.pingLoop(ctx)
			return nil
		}

		logger.Warn("Failed to connect to vendor feed: %v. Retrying in %v...", err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("failed to connect after %d attempts: %w", MaxConnectRetries, err)
}

// Subscribe adds stores to the tracking set and sends a subscription for the new ones
func (c *Client) Subscribe(storeIDs []string) error {
	c.subMu.Lock()
	fresh := make([]string, 0, len(storeIDs))
	for _, id := range storeIDs {
		if _, ok := c.subscriptions[id]; ok {
			continue
		}
		c.subscriptions[id] = struct{}{}
		fresh = append(fresh, id)
	}
	c.subMu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	return c.sendSubscribe(fresh)
}

func (c *Client) subscribed() []string {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	ids := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) sendSubscribe(stores []string) error {
	msg := SubscriptionMessage{
		Type:     "stores",
		StoreIDs: stores,
	}
	return c.WriteJSON(msg)
}

// WriteJSON sends a JSON message to the websocket thread-safely
func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("connection is nil")
	}

	c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return c.conn.WriteJSON(v)
}

// Close gracefully closes the connection
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			err = c.conn.Close()
			c.conn = nil
		}
	})
	return err
}

// readLoop handles messages in arrival order: successive quotes for one listing
// must reach the write path in the order the vendor sent them.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()

		// Trigger reconnection if context is not done and client is not closed
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
			c.reconnectMu.Lock()
			if !c.reconnecting {
				c.reconnecting = true
				c.reconnectMu.Unlock()
				logger.Warn("Vendor feed connection lost, reconnecting...")
				go func() {
					defer func() {
						c.reconnectMu.Lock()
						c.reconnecting = false
						c.reconnectMu.Unlock()
					}()
					if err := c.connectWithRetry(ctx); err != nil {
						logger.Error("Vendor feed reconnection failed: %v", err)
					}
				}()
			} else {
				c.reconnectMu.Unlock()
			}
		}
	}()

	conn.SetReadLimit(1024 * 1024) // 1MB limit
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("Vendor feed read error: %v", err)
			}
			return
		}

		if err := c.handler.HandleMessage(ctx, message); err != nil {
			logger.Error("VendorFeed: error handling message: %v", err)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn == nil {
				c.mu.Unlock()
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}
