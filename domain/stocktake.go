package domain

import "time"

// StocktakeTable is one counting round for a department.
type StocktakeTable struct {
	ID         int64     `db:"id" json:"id"`
	TableName  string    `db:"table_name" json:"table_name"`
	Department string    `db:"department" json:"department"`
	AccessCode string    `db:"access_code" json:"access_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	CreatedBy  *string   `db:"created_by" json:"created_by,omitempty"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

// StocktakeRecord is the count entry for one drug inside one table.
type StocktakeRecord struct {
	ID          int64     `db:"id" json:"id"`
	TableID     int64     `db:"table_id" json:"table_id"`
	DrugID      int64     `db:"drug_id" json:"drug_id"`
	Packs       int64     `db:"packs" json:"packs"`
	Singles     int64     `db:"singles" json:"singles"`
	ExpiryDate  *string   `db:"expiry_date" json:"expiry_date"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
}

// RecordRow is a record joined with its drug name, as shown on the stocktake and data pages.
type RecordRow struct {
	ID          int64     `db:"id" json:"id"`
	DrugName    string    `db:"drug_name" json:"drug_name"`
	Packs       int64     `db:"packs" json:"packs"`
	Singles     int64     `db:"singles" json:"singles"`
	ExpiryDate  *string   `db:"expiry_date" json:"expiry_date"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
}
