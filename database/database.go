package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"social-media-restful/models"
)

// DefaultGenders is the reference fixture inserted into an empty genders table.
var DefaultGenders = []string{"Male", "Female", "Other"}

// Open connects to MySQL with the given DSN. GORM's own log output is
// routed into zapLogger.
func Open(dsn string, logLevel string, zapLogger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(zapLogger, logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// NewGormLogger adapts zap to GORM's logger interface.
func NewGormLogger(zapLogger *zap.Logger, logLevel string) logger.Interface {
	level := logger.Warn
	if logLevel == "debug" {
		level = logger.Info
	}

	return logger.New(
		zap.NewStdLog(zapLogger.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // keep passwords out of the SQL log
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates the genders and users tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Gender{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedGenders inserts DefaultGenders in order when the genders table is empty.
// Existing reference data is never touched.
func SeedGenders(db *gorm.DB, zapLogger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Gender{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting genders: %w", err)
	}
	if count > 0 {
		return nil
	}

	genders := make([]models.Gender, 0, len(DefaultGenders))
	for _, name := range DefaultGenders {
		genders = append(genders, models.Gender{Name: name})
	}
	if err := db.Create(&genders).Error; err != nil {
		return fmt.Errorf("seeding genders: %w", err)
	}

	zapLogger.Info("Seeded genders", zap.Int("count", len(genders)))
	return nil
}
