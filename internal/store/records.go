package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"stocktake/m/domain"
)

// RecordUpdate replaces the counted values of one record. The record must belong to
// TableID. A nil ExpiryDate clears the stored expiry.
type RecordUpdate struct {
	ID         int64
	TableID    int64
	Packs      int64
	Singles    int64
	ExpiryDate *string
	UpdatedBy  string
}

type Records struct {
	db  *sqlx.DB
	now Clock
}

func NewRecords(db *sqlx.DB) *Records {
	return &Records{db: db, now: utcNow}
}

const recordRowSelect = `SELECT sr.id, d.drug_name, sr.packs, sr.singles, sr.expiry_date, sr.last_updated, sr.updated_by
        FROM stocktake_records sr
        JOIN drugs d ON d.id = sr.drug_id`

// ListByTable returns the records of a table ordered by drug name, optionally narrowed
// by a case-insensitive drug name search.
func (s *Records) ListByTable(ctx context.Context, tableID int64, search string) ([]domain.RecordRow, error) {
	query := recordRowSelect + ` WHERE sr.table_id = ?`
	args := []any{tableID}
	if strings.TrimSpace(search) != "" {
		query += ` AND LOWER(d.drug_name) LIKE ?`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY d.drug_name`

	rows := []domain.RecordRow{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing stocktake records: %w", err)
	}
	return rows, nil
}

func (s *Records) Get(ctx context.Context, tableID, id int64) (*domain.RecordRow, error) {
	var row domain.RecordRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(recordRowSelect+` WHERE sr.id = ? AND sr.table_id = ?`), id, tableID)
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Update writes the counts and expiry of one record and stamps last_updated. There is
// no version check: concurrent edits to the same record are last-write-wins.
func (s *Records) Update(ctx context.Context, in RecordUpdate) (*domain.RecordRow, error) {
	var updatedBy *string
	if in.UpdatedBy != "" {
		updatedBy = &in.UpdatedBy
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE stocktake_records SET packs = ?, singles = ?, expiry_date = ?, last_updated = ?, updated_by = ?
         WHERE id = ? AND table_id = ?`),
		in.Packs, in.Singles, in.ExpiryDate, s.now(), updatedBy, in.ID, in.TableID)
	if err != nil {
		return nil, fmt.Errorf("updating stocktake record: %w", err)
	}
	// RowsAffected is unreliable here (MySQL counts unchanged rows as zero), so a
	// record outside the table is detected by the read-back.
	return s.Get(ctx, in.TableID, in.ID)
}
