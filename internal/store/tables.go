package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stocktake/m/domain"
	"stocktake/m/internal/database"
)

type NewTable struct {
	TableName  string
	Department string
	AccessCode string
	CreatedBy  string
}

type Tables struct {
	db  *sqlx.DB
	now Clock
}

func NewTables(db *sqlx.DB) *Tables {
	return &Tables{db: db, now: utcNow}
}

const tableColumns = `id, table_name, department, access_code, created_at, created_by, is_active`

// Create inserts a stocktake table and snapshots one zeroed record per drug in the
// catalog. Both happen in one transaction: a failure leaves neither behind.
// It returns the new table and the number of records seeded.
func (s *Tables) Create(ctx context.Context, in NewTable) (*domain.StocktakeTable, int64, error) {
	now := s.now()
	table := domain.StocktakeTable{
		TableName:  strings.TrimSpace(in.TableName),
		Department: in.Department,
		AccessCode: strings.TrimSpace(in.AccessCode),
		CreatedAt:  now,
		IsActive:   true,
	}
	if in.CreatedBy != "" {
		createdBy := in.CreatedBy
		table.CreatedBy = &createdBy
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("starting table creation: %w", err)
	}
	defer tx.Rollback()

	table.ID, err = insertID(ctx, tx,
		`INSERT INTO stocktake_tables (table_name, department, access_code, created_at, created_by, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		table.TableName, table.Department, table.AccessCode, table.CreatedAt, table.CreatedBy, table.IsActive)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, 0, fmt.Errorf("inserting stocktake table: %w", err)
	}

	seeded, err := seedRecords(ctx, tx, table.ID, now)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("committing table creation: %w", err)
	}
	return &table, seeded, nil
}

func (s *Tables) FindByID(ctx context.Context, id int64) (*domain.StocktakeTable, error) {
	var table domain.StocktakeTable
	err := s.db.GetContext(ctx, &table, s.db.Rebind(
		`SELECT `+tableColumns+` FROM stocktake_tables WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

func (s *Tables) FindByAccessCode(ctx context.Context, code string) (*domain.StocktakeTable, error) {
	var table domain.StocktakeTable
	err := s.db.GetContext(ctx, &table, s.db.Rebind(
		`SELECT `+tableColumns+` FROM stocktake_tables WHERE access_code = ?`), strings.TrimSpace(code))
	if err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

// List returns tables newest first. An empty department lists every department.
func (s *Tables) List(ctx context.Context, department string) ([]domain.StocktakeTable, error) {
	query := `SELECT ` + tableColumns + ` FROM stocktake_tables`
	var args []any
	if department != "" {
		query += ` WHERE department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	tables := []domain.StocktakeTable{}
	if err := s.db.SelectContext(ctx, &tables, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing stocktake tables: %w", err)
	}
	return tables, nil
}

// SetActive opens or closes a table for department users.
func (s *Tables) SetActive(ctx context.Context, id int64, active bool) (*domain.StocktakeTable, error) {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE stocktake_tables SET is_active = ? WHERE id = ?`), active, id); err != nil {
		return nil, fmt.Errorf("updating stocktake table: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Delete removes a table and all of its records, records first. It returns the number
// of records removed.
func (s *Tables) Delete(ctx context.Context, id int64) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting table deletion: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM stocktake_records WHERE table_id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("deleting stocktake records: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM stocktake_tables WHERE id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("deleting stocktake table: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing table deletion: %w", err)
	}
	return removed, nil
}

// seedRecords inserts one zeroed record per catalog drug. Parameters stay in VALUES
// so every driver can infer their column types.
func seedRecords(ctx context.Context, tx *sqlx.Tx, tableID int64, now time.Time) (int64, error) {
	var drugIDs []int64
	if err := tx.SelectContext(ctx, &drugIDs, `SELECT id FROM drugs ORDER BY id`); err != nil {
		return 0, fmt.Errorf("listing drugs to seed: %w", err)
	}
	if len(drugIDs) == 0 {
		return 0, nil
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		`INSERT INTO stocktake_records (table_id, drug_id, packs, singles, expiry_date, last_updated)
         VALUES (?, ?, 0, 0, NULL, ?)`))
	if err != nil {
		return 0, fmt.Errorf("preparing record seed: %w", err)
	}
	defer stmt.Close()

	for _, drugID := range drugIDs {
		if _, err := stmt.ExecContext(ctx, tableID, drugID, now); err != nil {
			return 0, fmt.Errorf("seeding stocktake record for drug %d: %w", drugID, err)
		}
	}
	return int64(len(drugIDs)), nil
}
