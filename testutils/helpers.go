package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/medreg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory sqlite database. With no models given
// every application table is migrated.
func SetupTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection would get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(migrate) == 0 {
		migrate = models.All()
	}
	require.NoError(t, db.AutoMigrate(migrate...))

	return db
}

func CleanupTestDB(t *testing.T, db *gorm.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
}
