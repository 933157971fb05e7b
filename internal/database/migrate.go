package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
