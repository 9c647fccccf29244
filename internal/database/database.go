// Package database manages the optional Postgres connection used for
// generation history. The API runs fully without it.
package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/conceptual-machines/composer-api/internal/models"
)

// Connect opens the Postgres connection. An empty URL disables
// persistence and returns a nil handle.
func Connect(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, nil
	}
	return gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// Migrate applies the schema. Safe on a nil handle.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&models.Generation{})
}
