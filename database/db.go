package database

import (
	"fmt"
	"log/slog"
	"time"

	"billweave-backend/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database named by cfg. There is no package-level handle:
// the caller owns the returned *gorm.DB and passes it to whoever needs it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	level := logger.Warn
	if cfg.LogLevel <= slog.LevelDebug {
		level = logger.Info
	}

	db, err := Open(dialector, level)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	slog.Info("database connected", "driver", cfg.DBDriver)
	return db, nil
}

// Open wraps gorm.Open with the settings every handle in this service uses:
// UTC timestamps, driver errors translated to gorm sentinels (so a unique
// violation is gorm.ErrDuplicatedKey) and the given log level.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
}
