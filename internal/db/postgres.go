/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Handles connection pooling, initialization and schema migration of the
 * catalog, price history and shopper tables.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 */

package db

import (
	"time"

	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// poolHeadroom covers the listing write path and the notification workers running
// beside a full comparison fan-out.
const poolHeadroom = 2

// PoolSettings sizes the Postgres connection pool
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// poolFor sizes the pool so one comparison can resolve every requested store in
// parallel. DB_MAX_OPEN_CONNS is honored unless it would starve that fan-out.
func poolFor(cfg *config.Config) PoolSettings {
	fanOut := cfg.Compare.MaxStores
	if fanOut < 1 {
		fanOut = 1
	}

	maxOpen := cfg.DB.MaxOpenConns
	if floor := fanOut + poolHeadroom; maxOpen < floor {
		maxOpen = floor
	}

	return PoolSettings{
		MaxOpen:     maxOpen,
		MaxIdle:     fanOut,
		MaxLifetime: 30 * time.Minute,
	}
}

func gormLogLevel(env string) gormLogger.LogLevel {
	switch env {
	case "development":
		return gormLogger.Info
	case "staging":
		return gormLogger.Warn
	case "test":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}

// ConnectPostgres opens the catalog database and sizes its pool for comparison fan-out
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.URL,
		PreferSimpleProtocol: true, // disable prepared statements to avoid stmtcache collisions in serverless envs
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel(cfg.Server.Env)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pool := poolFor(cfg)
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)

	logger.Info("✅ Connected to PostgreSQL (pool %d open / %d idle)", pool.MaxOpen, pool.MaxIdle)
	return db, nil
}
