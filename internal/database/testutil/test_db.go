package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/database"
)

// MustOpenTenantDB opens a private in-memory SQLite database with the full
// tenant schema applied. Each call returns an isolated database, so a test
// can stand up multiple tenants side by side. The connection is closed via
// t.Cleanup.
func MustOpenTenantDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := mustOpenMemoryDB(t)
	require.NoError(t, database.AutoMigrateTenant(db))
	return db
}

// MustOpenCatalogDB opens a private in-memory SQLite database with the
// subscription catalog schema applied.
func MustOpenCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := mustOpenMemoryDB(t)
	require.NoError(t, database.AutoMigrateCatalog(db))
	return db
}

func mustOpenMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A unique name per open keeps shared-cache databases from colliding
	// when one test uses several tenants.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
