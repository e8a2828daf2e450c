package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"stocktake/m/domain"
	"stocktake/m/internal/database"
)

// AllDepartments disables the department filter on drug listings.
const AllDepartments = "All"

type DrugFilter struct {
	Search     string
	Department string
}

type Drugs struct {
	db  *sqlx.DB
	now Clock
}

func NewDrugs(db *sqlx.DB) *Drugs {
	return &Drugs{db: db, now: utcNow}
}

// Create adds a drug to the catalog. A nil department leaves it uncategorised.
func (s *Drugs) Create(ctx context.Context, name string, department *string) (*domain.Drug, error) {
	drug := domain.Drug{
		DrugName:   strings.TrimSpace(name),
		Department: department,
		CreatedAt:  s.now(),
	}
	var err error
	drug.ID, err = insertID(ctx, s.db,
		`INSERT INTO drugs (drug_name, department, created_at) VALUES (?, ?, ?)`,
		drug.DrugName, drug.Department, drug.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("drug %q: %w", drug.DrugName, ErrDuplicate)
		}
		return nil, fmt.Errorf("inserting drug: %w", err)
	}
	return &drug, nil
}

// List returns drugs ordered by name, narrowed by a case-insensitive name search and
// an exact department match.
func (s *Drugs) List(ctx context.Context, filter DrugFilter) ([]domain.Drug, error) {
	query := `SELECT id, drug_name, department, created_at FROM drugs WHERE 1 = 1`
	var args []any
	if strings.TrimSpace(filter.Search) != "" {
		query += ` AND LOWER(drug_name) LIKE ?`
		args = append(args, likePattern(filter.Search))
	}
	if filter.Department != "" && filter.Department != AllDepartments {
		query += ` AND department = ?`
		args = append(args, filter.Department)
	}
	query += ` ORDER BY drug_name`

	drugs := []domain.Drug{}
	if err := s.db.SelectContext(ctx, &drugs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing drugs: %w", err)
	}
	return drugs, nil
}

func (s *Drugs) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM drugs`); err != nil {
		return 0, fmt.Errorf("counting drugs: %w", err)
	}
	return n, nil
}
