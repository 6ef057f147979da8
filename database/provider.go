package database

import (
	"fmt"
	"strings"

	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type ModelsOption struct {
	models []any
}

func WithModels(models ...any) *ModelsOption {
	return &ModelsOption{models: models}
}

func ProvideDatabase(cfg config.Config, modelsOpt *ModelsOption, logger *logging.Service) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormLogLevel(cfg.Log.Level)),
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.Database.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		logger.Error("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// every connection to an in-memory sqlite database sees its own empty schema
	if cfg.Database.Driver == "sqlite" && strings.Contains(cfg.Database.DSN, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.Database.AutoMigrate && modelsOpt != nil && len(modelsOpt.models) > 0 {
		if err := db.AutoMigrate(modelsOpt.models...); err != nil {
			logger.Error("auto-migration failed", zap.Error(err))
			return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
		}
		logger.Info("database migrated", zap.Int("models", len(modelsOpt.models)))
	}

	logger.Info("database connected", zap.String("driver", cfg.Database.Driver))

	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
