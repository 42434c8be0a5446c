package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bensalemboualem/ifactory-school/internal/config"
	"github.com/bensalemboualem/ifactory-school/internal/models"
)

var DB *gorm.DB

var errNotConnected = errors.New("database not connected")

func Connect(cfg *config.Config) error {
	logLevel := logger.Warn
	if cfg.AppEnv == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	DB = db
	slog.Info("database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

// MigrateCore runs AutoMigrate for the models every school uses.
func MigrateCore() error {
	return MigrateModels([]any{
		&models.User{},
		&models.SystemLog{},
	})
}

// MigrateModels runs AutoMigrate for arbitrary models (used by app modules).
func MigrateModels(modelList []any) error {
	if len(modelList) == 0 {
		return nil
	}
	if DB == nil {
		return errNotConnected
	}
	return DB.AutoMigrate(modelList...)
}

func Ping() error {
	if DB == nil {
		return errNotConnected
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
