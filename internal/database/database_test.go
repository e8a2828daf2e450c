package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktake/m/internal/config"
)

func TestConnectSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(t.TempDir(), "stocktake.db"))
	db, err := Connect(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.DriverName())
	assert.False(t, IsPostgres(db))
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), config.DBConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: drugs.drug_name (2067)")))
	assert.False(t, IsUniqueViolation(errors.New("no such table: drugs")))
	assert.False(t, IsUniqueViolation(nil))
}
