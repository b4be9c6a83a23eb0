package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

const rateColumns = `id, plan_id, gender, cutoff_age, net_price, version`

// RateChartRepo implements catalog.Store[domain.RateChart] against
// PostgreSQL.
type RateChartRepo struct{ db queryer }

// NewRateChartRepo creates a Postgres-backed rate chart repository.
func NewRateChartRepo(db *sql.DB) *RateChartRepo { return &RateChartRepo{db: db} }

func scanRate(s scanner) (*domain.RateChart, error) {
	rc := &domain.RateChart{}
	if err := s.Scan(&rc.ID, &rc.PlanID, &rc.Gender, &rc.CutoffAge, &rc.NetPrice, &rc.Version); err != nil {
		return nil, err
	}
	return rc, nil
}

func (r *RateChartRepo) list(ctx context.Context, where string, args ...any) ([]domain.RateChart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rateColumns+` FROM rate_charts `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rate charts: %w", err)
	}
	defer rows.Close()

	out := []domain.RateChart{}
	for rows.Next() {
		rc, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rate chart: %w", err)
		}
		out = append(out, *rc)
	}
	return out, rows.Err()
}

func (r *RateChartRepo) List(ctx context.Context) ([]domain.RateChart, error) {
	return r.list(ctx, "")
}

// ListRatesByPlan returns the rate rows of one plan ordered by id.
func (r *RateChartRepo) ListRatesByPlan(ctx context.Context, planID int64) ([]domain.RateChart, error) {
	return r.list(ctx, "WHERE plan_id = $1", planID)
}

func (r *RateChartRepo) Get(ctx context.Context, id int64) (*domain.RateChart, error) {
	rc, err := scanRate(r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM rate_charts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rate chart: %w", err)
	}
	return rc, nil
}

func (r *RateChartRepo) Insert(ctx context.Context, rc *domain.RateChart) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rate_charts (plan_id, gender, cutoff_age, net_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version
	`, rc.PlanID, rc.Gender, rc.CutoffAge, rc.NetPrice).Scan(&rc.ID, &rc.Version)
	if err != nil {
		return wrap("insert rate chart", err, false)
	}
	return nil
}

func (r *RateChartRepo) Update(ctx context.Context, rc *domain.RateChart) error {
	return updated("update rate chart", r.db.QueryRowContext(ctx, `
		UPDATE rate_charts
		SET plan_id = $3, gender = $4, cutoff_age = $5, net_price = $6, version = version + 1
		WHERE id = $1 AND ($2::bigint = 0 OR version = $2::bigint)
		RETURNING version
	`, rc.ID, rc.Version, rc.PlanID, rc.Gender, rc.CutoffAge, rc.NetPrice), &rc.Version)
}

func (r *RateChartRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "rate_charts", id)
}

func (r *RateChartRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, "rate_charts", id)
}

// FindRate returns the tightest bracket of planID for gender that still
// covers age.
func (r *RateChartRepo) FindRate(ctx context.Context, planID int64, gender domain.Gender, age int) (*domain.RateChart, error) {
	rc, err := scanRate(r.db.QueryRowContext(ctx, `
		SELECT `+rateColumns+`
		FROM rate_charts
		WHERE plan_id = $1 AND gender = $2 AND $3 < cutoff_age
		ORDER BY cutoff_age, id
		LIMIT 1
	`, planID, gender, age))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find rate: %w", err)
	}
	return rc, nil
}
