package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

const customerColumns = `id, name, date_of_birth, gender, country, version`

// CustomerRepo implements catalog.Store[domain.Customer] against PostgreSQL.
type CustomerRepo struct{ db queryer }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func scanCustomer(s scanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	if err := s.Scan(&c.ID, &c.Name, &c.DateOfBirth, &c.Gender, &c.Country, &c.Version); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CustomerRepo) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) Insert(ctx context.Context, c *domain.Customer) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, date_of_birth, gender, country)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version
	`, c.Name, c.DateOfBirth, c.Gender, c.Country).Scan(&c.ID, &c.Version)
	if err != nil {
		return wrap("insert customer", err, false)
	}
	return nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	return updated("update customer", r.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $3, date_of_birth = $4, gender = $5, country = $6, version = version + 1
		WHERE id = $1 AND ($2::bigint = 0 OR version = $2::bigint)
		RETURNING version
	`, c.ID, c.Version, c.Name, c.DateOfBirth, c.Gender, c.Country), &c.Version)
}

func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "customers", id)
}

func (r *CustomerRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, "customers", id)
}

// FindCustomerByName returns the lowest-id customer whose name matches,
// ignoring case.
func (r *CustomerRepo) FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE lower(name) = lower($1)
		ORDER BY id
		LIMIT 1
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer by name: %w", err)
	}
	return c, nil
}
