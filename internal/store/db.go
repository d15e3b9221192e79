// Package store persists tasks and agent-execution audit rows through GORM.
// Production deployments point DATABASE_URL at Postgres; development and
// tests fall back to a pure-Go SQLite database.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskpilot/internal/logging"
	"taskpilot/pkg/models"
)

// Open connects to the database named by databaseURL. An empty URL opens the
// SQLite file at sqlitePath instead, and ":memory:" gives tests a throwaway
// database.
func Open(databaseURL, sqlitePath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		if sqlitePath == "" {
			sqlitePath = "taskpilot.db"
		}
		if sqlitePath == ":memory:" {
			// every pooled connection must see the same in-memory database
			sqlitePath = "file::memory:?cache=shared"
		}
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.S().Infow("database connected", "postgres", databaseURL != "")
	return db, nil
}

// Migrate creates or updates the schema and seeds per-agent configuration
// rows.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Task{},
		&models.AgentExecution{},
		&models.AgentConfig{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return seedAgentConfigs(db)
}

// seedAgentConfigs inserts a default config row per agent type if missing.
func seedAgentConfigs(db *gorm.DB) error {
	agentTypes := []string{
		"task_analyzer", "product_manager", "ux_designer",
		"db_architect", "tech_lead", "code_reviewer",
		"qa_strategist", "security_analyst",
		"project_manager", "devops_specialist",
	}
	for _, agentType := range agentTypes {
		var existing models.AgentConfig
		err := db.Where("agent_type = ?", agentType).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		cfg := models.AgentConfig{
			AgentType:     agentType,
			Enabled:       true,
			Configuration: map[string]any{},
		}
		if err := db.Create(&cfg).Error; err != nil {
			return err
		}
	}
	return nil
}
