package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
)

// AutoMigrateTenant creates or updates the per-tenant schema: session and
// identity tables, one privilege table per feature, and the notification
// tables.
func AutoMigrateTenant(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.Session{},
		&models.User{},
		&models.NotificationSettings{},
		&models.Notification{},
		&models.NotificationRead{},
	); err != nil {
		return fmt.Errorf("auto migrate tenant tables: %w", err)
	}

	for _, feature := range features.All() {
		if err := db.Table(feature.PrivilegeTable()).AutoMigrate(&models.PrivilegeRecord{}); err != nil {
			return fmt.Errorf("auto migrate %s: %w", feature.PrivilegeTable(), err)
		}
	}

	return nil
}

// AutoMigrateCatalog creates or updates the cross-tenant subscription catalog.
func AutoMigrateCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(&models.SubscriptionPackage{}); err != nil {
		return fmt.Errorf("auto migrate catalog: %w", err)
	}
	return nil
}
