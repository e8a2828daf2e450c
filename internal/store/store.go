// Package store holds one repository per persisted entity. Queries are written with
// '?' placeholders and rebound for the connected driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stocktake/m/internal/database"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Clock returns the current time. Repositories stamp rows with it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// insertID runs an INSERT and returns the generated id. PostgreSQL has no
// LastInsertId, so the statement gets a RETURNING clause there instead.
func insertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	if database.IsPostgres(ext) {
		var id int64
		err := ext.QueryRowxContext(ctx, ext.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
