package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

type schema struct {
	dialect goose.Dialect
	up      []string
	down    []string
}

var dropAll = []string{
	`DROP TABLE IF EXISTS stocktake_records`,
	`DROP TABLE IF EXISTS stocktake_tables`,
	`DROP TABLE IF EXISTS drugs`,
	`DROP TABLE IF EXISTS users`,
}

var schemas = map[string]schema{
	"mysql": {
		dialect: goose.DialectMySQL,
		up: []string{
			`CREATE TABLE IF NOT EXISTS users (
            id INT AUTO_INCREMENT PRIMARY KEY,
            username VARCHAR(100) NOT NULL UNIQUE,
            password VARCHAR(255) NOT NULL,
            department VARCHAR(50) NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
			`CREATE TABLE IF NOT EXISTS drugs (
            id INT AUTO_INCREMENT PRIMARY KEY,
            drug_name VARCHAR(255) NOT NULL UNIQUE,
            department VARCHAR(50),
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_tables (
            id INT AUTO_INCREMENT PRIMARY KEY,
            table_name VARCHAR(255) NOT NULL,
            department VARCHAR(50) NOT NULL,
            access_code VARCHAR(50) NOT NULL UNIQUE,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            created_by VARCHAR(100),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_records (
            id INT AUTO_INCREMENT PRIMARY KEY,
            table_id INT NOT NULL,
            drug_id INT NOT NULL,
            packs INT NOT NULL DEFAULT 0,
            singles INT NOT NULL DEFAULT 0,
            expiry_date VARCHAR(20),
            last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_by VARCHAR(100),
            UNIQUE KEY uq_stocktake_records_table_drug (table_id, drug_id),
            FOREIGN KEY (table_id) REFERENCES stocktake_tables(id),
            FOREIGN KEY (drug_id) REFERENCES drugs(id)
        )`,
		},
		down: dropAll,
	},
	"pgx": {
		dialect: goose.DialectPostgres,
		up: []string{
			`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username VARCHAR(100) NOT NULL UNIQUE,
            password VARCHAR(255) NOT NULL,
            department VARCHAR(50) NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
			`CREATE TABLE IF NOT EXISTS drugs (
            id BIGSERIAL PRIMARY KEY,
            drug_name VARCHAR(255) NOT NULL UNIQUE,
            department VARCHAR(50),
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_tables (
            id BIGSERIAL PRIMARY KEY,
            table_name VARCHAR(255) NOT NULL,
            department VARCHAR(50) NOT NULL,
            access_code VARCHAR(50) NOT NULL UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            created_by VARCHAR(100),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_records (
            id BIGSERIAL PRIMARY KEY,
            table_id BIGINT NOT NULL REFERENCES stocktake_tables(id),
            drug_id BIGINT NOT NULL REFERENCES drugs(id),
            packs INTEGER NOT NULL DEFAULT 0,
            singles INTEGER NOT NULL DEFAULT 0,
            expiry_date VARCHAR(20),
            last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_by VARCHAR(100),
            UNIQUE (table_id, drug_id)
        )`,
		},
		down: dropAll,
	},
	"sqlite": {
		dialect: goose.DialectSQLite3,
		up: []string{
			`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            department TEXT NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
			`CREATE TABLE IF NOT EXISTS drugs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            drug_name TEXT NOT NULL UNIQUE,
            department TEXT,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_tables (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            table_name TEXT NOT NULL,
            department TEXT NOT NULL,
            access_code TEXT NOT NULL UNIQUE,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
			`CREATE TABLE IF NOT EXISTS stocktake_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            table_id INTEGER NOT NULL,
            drug_id INTEGER NOT NULL,
            packs INTEGER NOT NULL DEFAULT 0,
            singles INTEGER NOT NULL DEFAULT 0,
            expiry_date TEXT,
            last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_by TEXT,
            UNIQUE(table_id, drug_id),
            FOREIGN KEY(table_id) REFERENCES stocktake_tables(id),
            FOREIGN KEY(drug_id) REFERENCES drugs(id)
        )`,
		},
		down: dropAll,
	},
}

func execAll(stmts []string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

func newProvider(db *sqlx.DB) (*goose.Provider, error) {
	s, ok := schemas[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	return goose.NewProvider(s.dialect, db.DB, nil,
		goose.WithGoMigrations(
			goose.NewGoMigration(1,
				&goose.GoFunc{RunTx: execAll(s.up)},
				&goose.GoFunc{RunTx: execAll(s.down)},
			),
		),
	)
}

// Run brings the stocktake schema up to date and returns the versions it applied.
func Run(ctx context.Context, db *sqlx.DB) ([]int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return nil, fmt.Errorf("building migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrating up: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, res := range results {
		applied = append(applied, res.Source.Version)
	}
	return applied, nil
}

// Reset rolls every migration back. Used by tests and local resets.
func Reset(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("building migration provider: %w", err)
	}
	if _, err := provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("migrating down: %w", err)
	}
	return nil
}
