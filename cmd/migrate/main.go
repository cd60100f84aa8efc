package main

import (
	"log"

	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/db"
	"github.com/groceryscout/backend/internal/logger"
)

func main() {
	log.Println("🚀 Running GroceryScout schema migration...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("✅ Migration completed successfully.")
}
