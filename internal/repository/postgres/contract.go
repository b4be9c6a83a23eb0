package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

const contractColumns = `id, customer_id, coverage_id, sale_date, net_price, version`

// ContractRepo implements contract.Repository against PostgreSQL.
type ContractRepo struct{ db queryer }

// NewContractRepo creates a Postgres-backed contract repository.
func NewContractRepo(db *sql.DB) *ContractRepo { return &ContractRepo{db: db} }

func scanContract(s scanner) (*domain.ContractItem, error) {
	c := &domain.ContractItem{}
	if err := s.Scan(&c.ID, &c.CustomerID, &c.CoverageID, &c.SaleDate, &c.NetPrice, &c.Version); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContractRepo) List(ctx context.Context) ([]domain.ContractItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contractColumns+` FROM contract_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := []domain.ContractItem{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContractRepo) Get(ctx context.Context, id int64) (*domain.ContractItem, error) {
	c, err := scanContract(r.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contract_items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (r *ContractRepo) Insert(ctx context.Context, c *domain.ContractItem) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contract_items (customer_id, coverage_id, sale_date, net_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version
	`, c.CustomerID, c.CoverageID, c.SaleDate, c.NetPrice).Scan(&c.ID, &c.Version)
	if err != nil {
		return wrap("insert contract", err, false)
	}
	return nil
}

func (r *ContractRepo) Update(ctx context.Context, c *domain.ContractItem) error {
	return updated("update contract", r.db.QueryRowContext(ctx, `
		UPDATE contract_items
		SET customer_id = $3, coverage_id = $4, sale_date = $5, net_price = $6, version = version + 1
		WHERE id = $1 AND ($2::bigint = 0 OR version = $2::bigint)
		RETURNING version
	`, c.ID, c.Version, c.CustomerID, c.CoverageID, c.SaleDate, c.NetPrice), &c.Version)
}

func (r *ContractRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "contract_items", id)
}

func (r *ContractRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, "contract_items", id)
}
