/**
 * @description
 * Configuration loader for the GroceryScout backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL) are missing.
 * - Comparison limits are validated here so the engine can trust them.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Compare  CompareConfig
	Notify   NotifyConfig
	Search   SearchConfig
	Services ServicesConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development", "staging", "production" or "test"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL          string
	MaxOpenConns int
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// CompareConfig bounds the multi-store comparison engine
type CompareConfig struct {
	MinStores     int // fewest distinct stores a comparison accepts
	MaxStores     int // most distinct stores a comparison accepts
	MaxPlanStores int // cap on distinct stores used by an allocation plan
}

// NotifyConfig tunes the asynchronous notification dispatcher
type NotifyConfig struct {
	QueueSize           int
	Workers             int
	RatePerSecond       float64
	SavingsAlertPercent int64
}

// SearchConfig holds search/trending settings
type SearchConfig struct {
	TrendingDefaultLimit int
	RatePerSecond        float64
	RateBurst            int
}

// ServicesConfig holds external service settings (Auth, vendor feed, internal callers)
type ServicesConfig struct {
	ClerkJWKSURL      string // URL to fetch JSON Web Key Set for JWT validation
	InternalAPISecret string // shared secret for internal write-path endpoints
	VendorFeedURL     string // WebSocket endpoint streaming vendor price updates
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Compare: CompareConfig{
			MinStores:     getEnvAsInt("COMPARE_MIN_STORES", 2),
			MaxStores:     getEnvAsInt("COMPARE_MAX_STORES", 3),
			MaxPlanStores: getEnvAsInt("COMPARE_MAX_PLAN_STORES", 2),
		},
		Notify: NotifyConfig{
			QueueSize:           getEnvAsInt("NOTIFY_QUEUE_SIZE", 1024),
			Workers:             getEnvAsInt("NOTIFY_WORKERS", 2),
			RatePerSecond:       getEnvAsFloat("NOTIFY_RATE_PER_SEC", 50),
			SavingsAlertPercent: int64(getEnvAsInt("SAVINGS_ALERT_PERCENT", 10)),
		},
		Search: SearchConfig{
			TrendingDefaultLimit: getEnvAsInt("TRENDING_DEFAULT_LIMIT", 10),
			RatePerSecond:        getEnvAsFloat("SEARCH_RATE_PER_SEC", 5),
			RateBurst:            getEnvAsInt("SEARCH_RATE_BURST", 10),
		},
		Services: ServicesConfig{
			ClerkJWKSURL:      getEnv("CLERK_JWKS_URL", ""),
			InternalAPISecret: sanitizeCredential(getEnv("INTERNAL_API_SECRET", "")),
			VendorFeedURL:     getEnv("VENDOR_FEED_URL", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with every default applied and no external endpoints.
// Tests and one-off tools build on it instead of the environment.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Env: "test"},
		DB:      DBConfig{MaxOpenConns: 10},
		Redis:   RedisConfig{URL: "redis://localhost:6379"},
		Compare: CompareConfig{MinStores: 2, MaxStores: 3, MaxPlanStores: 2},
		Notify:  NotifyConfig{QueueSize: 1024, Workers: 2, RatePerSecond: 50, SavingsAlertPercent: 10},
		Search:  SearchConfig{TrendingDefaultLimit: 10, RatePerSecond: 5, RateBurst: 10},
	}
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return validateCompare(cfg.Compare)
}

func validateCompare(c CompareConfig) error {
	if c.MinStores < 2 {
		return fmt.Errorf("COMPARE_MIN_STORES must be at least 2, got %d", c.MinStores)
	}
	if c.MaxStores < c.MinStores {
		return fmt.Errorf("COMPARE_MAX_STORES (%d) must not be below COMPARE_MIN_STORES (%d)", c.MaxStores, c.MinStores)
	}
	if c.MaxPlanStores < 1 {
		return fmt.Errorf("COMPARE_MAX_PLAN_STORES must be at least 1, got %d", c.MaxPlanStores)
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}
