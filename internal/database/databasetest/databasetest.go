// Package databasetest opens throwaway migrated SQLite stores for tests.
package databasetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/config"
	"ghostlounge_backend/internal/database"
)

// Open returns a migrated, empty SQLite database in t.TempDir().
func Open(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db, config.DriverSQLite))
	return db
}

// OpenSeeded is Open plus the default seed data (admin/admin123).
func OpenSeeded(t *testing.T) *sql.DB {
	t.Helper()
	db := Open(t)
	require.NoError(t, database.Seed(context.Background(), db, database.SeedOptions{
		AdminUsername: "admin",
		AdminPassword: "admin123",
	}))
	return db
}
