package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

const planColumns = `id, name, eligibility_country, eligibility_date_from, eligibility_date_to, version`

// CoveragePlanRepo implements catalog.Store[domain.CoveragePlan] against
// PostgreSQL.
type CoveragePlanRepo struct{ db queryer }

// NewCoveragePlanRepo creates a Postgres-backed coverage plan repository.
func NewCoveragePlanRepo(db *sql.DB) *CoveragePlanRepo { return &CoveragePlanRepo{db: db} }

func scanPlan(s scanner) (*domain.CoveragePlan, error) {
	p := &domain.CoveragePlan{}
	err := s.Scan(&p.ID, &p.Name, &p.EligibilityCountry,
		&p.EligibilityDateFrom, &p.EligibilityDateTo, &p.Version)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *CoveragePlanRepo) List(ctx context.Context) ([]domain.CoveragePlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+planColumns+` FROM coverage_plans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list coverage plans: %w", err)
	}
	defer rows.Close()

	out := []domain.CoveragePlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coverage plan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *CoveragePlanRepo) Get(ctx context.Context, id int64) (*domain.CoveragePlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM coverage_plans WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get coverage plan: %w", err)
	}
	return p, nil
}

func (r *CoveragePlanRepo) Insert(ctx context.Context, p *domain.CoveragePlan) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coverage_plans (name, eligibility_country, eligibility_date_from, eligibility_date_to)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version
	`, p.Name, p.EligibilityCountry, p.EligibilityDateFrom, p.EligibilityDateTo).Scan(&p.ID, &p.Version)
	if err != nil {
		return wrap("insert coverage plan", err, false)
	}
	return nil
}

func (r *CoveragePlanRepo) Update(ctx context.Context, p *domain.CoveragePlan) error {
	return updated("update coverage plan", r.db.QueryRowContext(ctx, `
		UPDATE coverage_plans
		SET name = $3, eligibility_country = $4, eligibility_date_from = $5,
		    eligibility_date_to = $6, version = version + 1
		WHERE id = $1 AND ($2::bigint = 0 OR version = $2::bigint)
		RETURNING version
	`, p.ID, p.Version, p.Name, p.EligibilityCountry, p.EligibilityDateFrom, p.EligibilityDateTo), &p.Version)
}

func (r *CoveragePlanRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "coverage_plans", id)
}

func (r *CoveragePlanRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, "coverage_plans", id)
}

// FindEligiblePlan returns the lowest-id plan for country whose window
// strictly contains dob.
func (r *CoveragePlanRepo) FindEligiblePlan(ctx context.Context, country string, dob domain.Date) (*domain.CoveragePlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, `
		SELECT `+planColumns+`
		FROM coverage_plans
		WHERE lower(eligibility_country) = lower(trim($1))
		  AND eligibility_date_from < $2
		  AND $2 < eligibility_date_to
		ORDER BY id
		LIMIT 1
	`, country, dob))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find eligible plan: %w", err)
	}
	return p, nil
}
