/**
 * @description
 * Authentication middleware using Clerk JWTs.
 * Validates Bearer tokens against Clerk's JWKS.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 * - github.com/MicahParks/keyfunc/v2: JWKS fetching and caching
 *
 * @notes
 * - Requires CLERK_JWKS_URL to be set in configuration.
 * - Caches JWKS keys to prevent excessive network calls.
 * - Comparison and search stay anonymous; OptionalAuth only attaches an identity
 *   when a valid token is present.
 */

package middleware

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
)

const clerkIDLocal = "clerk_id"

// authError carries the client-facing rejection message
type authError struct {
	msg string
}

func (e authError) Error() string { return e.msg }

var (
	keyfuncMu sync.RWMutex
	activeKey jwt.Keyfunc
)

// InitAuthMiddleware initializes the JWKS cache. Should be called at startup.
func InitAuthMiddleware(cfg *config.Config) error {
	if cfg.Services.ClerkJWKSURL == "" {
		logger.Warn("⚠️ CLERK_JWKS_URL is empty. Auth validation will fail if not mocked.")
		return nil
	}

	// Refresh the JWKS every hour.
	jwks, err := keyfunc.Get(cfg.Services.ClerkJWKSURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			logger.Error("There was an error with the JWKS refresh: %v", err)
		},
	})
	if err != nil {
		return err
	}

	SetKeyfunc(jwks.Keyfunc)
	logger.Info("✅ Auth Middleware Initialized with JWKS")
	return nil
}

// SetKeyfunc replaces the key lookup used to verify tokens
func SetKeyfunc(fn jwt.Keyfunc) {
	keyfuncMu.Lock()
	defer keyfuncMu.Unlock()
	activeKey = fn
}

func currentKeyfunc() jwt.Keyfunc {
	keyfuncMu.RLock()
	defer keyfuncMu.RUnlock()
	return activeKey
}

// authenticate extracts and validates the bearer token, returning the Clerk subject
func authenticate(c *fiber.Ctx, key jwt.Keyfunc) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", authError{"Missing authorization header"}
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", authError{"Invalid token format"}
	}

	token, err := jwt.Parse(tokenString, key)
	if err != nil {
		return "", authError{"Invalid token: " + err.Error()}
	}
	if !token.Valid {
		return "", authError{"Invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", authError{"Invalid token claims"}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", authError{"Token missing subject"}
	}
	return sub, nil
}

// Protected protects routes requiring authentication
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := currentKeyfunc()
		if key == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Auth configuration not initialized",
			})
		}

		sub, err := authenticate(c, key)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(clerkIDLocal, sub)
		return c.Next()
	}
}

// OptionalAuth attaches the Clerk subject when a valid token is sent and otherwise
// lets the request through anonymously.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := currentKeyfunc()
		if key == nil || c.Get("Authorization") == "" {
			return c.Next()
		}

		if sub, err := authenticate(c, key); err == nil {
			c.Locals(clerkIDLocal, sub)
		}
		return c.Next()
	}
}

// GetUserID returns the authenticated user's Clerk ID from context
func GetUserID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(clerkIDLocal).(string)
	if !ok {
		return "", errors.New("user id not found in context")
	}
	return id, nil
}
