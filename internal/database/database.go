package database

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"stocktake/m/internal/config"
)

// driverNames maps the configured driver onto the name registered with database/sql.
var driverNames = map[string]string{
	config.DriverMySQL:    "mysql",
	config.DriverPostgres: "pgx",
	config.DriverSQLite:   "sqlite",
}

// Connect opens the configured database and verifies it is reachable.
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	name, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sqlx.ConnectContext(ctx, name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// IsPostgres reports whether db talks to PostgreSQL, which lacks LastInsertId.
func IsPostgres(db interface{ DriverName() string }) bool {
	return db.DriverName() == "pgx"
}
