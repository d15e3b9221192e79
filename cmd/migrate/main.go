// Database migration CLI for TaskPilot.
//
// Usage:
//
//	go run cmd/migrate/main.go        # apply schema migrations and seed agent configs
package main

import (
	"github.com/joho/godotenv"

	"taskpilot/internal/config"
	"taskpilot/internal/logging"
	"taskpilot/internal/store"
)

func main() {
	_ = godotenv.Load()

	logging.Init()
	defer logging.Sync()

	cfg := config.Load()

	db, err := store.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logging.S().Fatalw("failed to open database", "error", err)
	}

	// Open already runs Migrate; run it again explicitly so the command
	// reports failures even when the schema is current.
	if err := store.Migrate(db); err != nil {
		logging.S().Fatalw("migration failed", "error", err)
	}
	logging.S().Infow("migrations applied")
}
