package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/maple/policydesk/internal/service/catalog"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// wrap maps driver errors onto the catalog sentinels. A foreign key
// violation means a missing parent on write and a live child on delete.
func wrap(op string, err error, deleting bool) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			if deleting {
				return fmt.Errorf("%s: %w", op, catalog.ErrInUse)
			}
			return fmt.Errorf("%s: %w", op, catalog.ErrReferenced)
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, catalog.ErrDuplicate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// deleteByID removes one row and maps zero affected rows to ErrNotFound.
func deleteByID(ctx context.Context, db queryer, table string, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return wrap("delete "+table, err, true)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func existsByID(ctx context.Context, db queryer, table string, id int64) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return ok, nil
}

// updated interprets the RETURNING version of a version-checked UPDATE.
func updated(op string, row *sql.Row, version *int64) error {
	err := row.Scan(version)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrConflict
	}
	if err != nil {
		return wrap(op, err, false)
	}
	return nil
}
