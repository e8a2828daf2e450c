// Package testdb opens throwaway SQLite databases carrying the production schema.
package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"stocktake/m/internal/config"
	"stocktake/m/internal/database"
	"stocktake/m/internal/migrations"
)

// Open returns a migrated database that is closed when the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "stocktake.db"))
	db, err := database.Connect(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Run(context.Background(), db)
	require.NoError(t, err)
	return db
}

// PostgresDSNEnv names the variable holding a disposable PostgreSQL database for the
// integration tests. The schema is dropped and recreated around each test.
const PostgresDSNEnv = "STOCKTAKE_TEST_POSTGRES_DSN"

// OpenPostgres returns a migrated PostgreSQL database, or skips the test when
// STOCKTAKE_TEST_POSTGRES_DSN is unset.
func OpenPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, config.DBConfig{Driver: config.DriverPostgres, DSN: dsn})
	require.NoError(t, err)

	require.NoError(t, migrations.Reset(ctx, db))
	_, err = migrations.Run(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = migrations.Reset(context.Background(), db)
		_ = db.Close()
	})
	return db
}
