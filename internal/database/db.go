package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&Client{},
		&Equipment{},
		&Alert{},
		&MaintenanceRecord{},
		&MeasurementRecord{},
		&FilterSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist
func InitializeDefaults() error {
	log.Println("Initializing default database records...")

	if _, err := GetOrCreateFilterSettings(DB); err != nil {
		return fmt.Errorf("failed to initialize filter settings: %w", err)
	}

	return nil
}

// GetOrCreateFilterSettings retrieves or creates filter settings (singleton).
// Accepts a db parameter (rather than using the global DB) to support
// dependency injection, transaction contexts, and easier testing.
func GetOrCreateFilterSettings(db *gorm.DB) (*FilterSettings, error) {
	var settings FilterSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultFilterSettings()
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateFilterSettings updates filter settings.
// Uses Save() which handles both insert and update operations.
func UpdateFilterSettings(db *gorm.DB, settings *FilterSettings) error {
	return db.Save(settings).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
