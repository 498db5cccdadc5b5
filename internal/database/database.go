package database

import (
	"fmt"
	"strings"

	"telegram-message-service/internal/config"
	"telegram-message-service/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the document store, migrates the schema and applies the directory seed.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := SeedDirectory(db, cfg.Directory.Users, cfg.Simulation.Network); err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects to the sqlite database behind dsn. The pool is pinned to a single
// connection so writers never hit "database is locked" and ":memory:" stays one database.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// AutoMigrate creates or updates the tables for every collection the relay uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TelegramUser{}, &models.SafeDeployment{}, &models.TradeSimulation{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// SeedDirectory links the configured users to their chats and custodial addresses.
// Existing rows are left alone.
func SeedDirectory(db *gorm.DB, users []config.SeedUser, network string) error {
	for _, u := range users {
		username := strings.TrimPrefix(u.Username, "@")
		if username == "" {
			continue
		}

		user := models.TelegramUser{Username: username, TradingIdentity: u.TradingIdentity}
		if u.ChatID != 0 {
			chatID := u.ChatID
			user.ChatID = &chatID
		}
		if err := db.Where(models.TelegramUser{Username: username}).FirstOrCreate(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user '%s': %w", username, err)
		}

		if u.TradingIdentity == "" || u.SafeAddress == "" {
			continue
		}
		deployment := models.SafeDeployment{
			TradingIdentity: u.TradingIdentity,
			SafeAddresses:   map[string]string{network: u.SafeAddress},
		}
		if err := db.Where(models.SafeDeployment{TradingIdentity: u.TradingIdentity}).FirstOrCreate(&deployment).Error; err != nil {
			return fmt.Errorf("failed to seed safe deployment for '%s': %w", u.TradingIdentity, err)
		}
	}
	return nil
}
