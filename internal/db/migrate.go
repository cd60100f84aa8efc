package db

import (
	"fmt"

	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Store{},
		&models.Product{},
		&models.StoreListing{},
		&models.PriceHistoryEntry{},
		&models.SavedProduct{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema. Columns are only ever added; AutoMigrate
// never drops data.
func Migrate(db *gorm.DB) error {
	// default:uuid_generate_v4() on primary keys
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("✅ Database schema migrated (%d tables)", len(Models()))
	return nil
}
