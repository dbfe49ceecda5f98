package db

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database, migrated to the full
// schema. Shared-cache DSN keyed by test name so every pooled connection
// sees the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return gdb
}

// newTestKey inserts an active API key for beacon-scoped tests.
func newTestKey(t *testing.T, gdb *gorm.DB) *APIKey {
	t.Helper()

	key := &APIKey{
		Key:    "wp_test_key",
		Name:   "test-site",
		Domain: "example.com",
		Active: true,
	}
	require.NoError(t, gdb.Create(key).Error)
	return key
}
