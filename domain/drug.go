package domain

import "time"

type Drug struct {
	ID         int64     `db:"id" json:"id"`
	DrugName   string    `db:"drug_name" json:"drug_name"`
	Department *string   `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
