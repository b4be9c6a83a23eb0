package postgres

import (
	"context"
	"database/sql"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

// Store groups the repositories sharing one connection pool. It also
// satisfies rating.Repository.
type Store struct {
	db        *sql.DB
	customers *CustomerRepo
	plans     *CoveragePlanRepo
	rates     *RateChartRepo
	contracts *ContractRepo
}

// New creates a Store over db.
func New(db *sql.DB) *Store {
	return &Store{
		db:        db,
		customers: NewCustomerRepo(db),
		plans:     NewCoveragePlanRepo(db),
		rates:     NewRateChartRepo(db),
		contracts: NewContractRepo(db),
	}
}

func (s *Store) Customers() catalog.Store[domain.Customer]         { return s.customers }
func (s *Store) CoveragePlans() catalog.Store[domain.CoveragePlan] { return s.plans }
func (s *Store) RateCharts() catalog.Store[domain.RateChart]       { return s.rates }
func (s *Store) Contracts() catalog.Store[domain.ContractItem]     { return s.contracts }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	return s.customers.FindCustomerByName(ctx, name)
}

func (s *Store) FindEligiblePlan(ctx context.Context, country string, dob domain.Date) (*domain.CoveragePlan, error) {
	return s.plans.FindEligiblePlan(ctx, country, dob)
}

func (s *Store) FindRate(ctx context.Context, planID int64, gender domain.Gender, age int) (*domain.RateChart, error) {
	return s.rates.FindRate(ctx, planID, gender, age)
}

func (s *Store) ListRatesByPlan(ctx context.Context, planID int64) ([]domain.RateChart, error) {
	return s.rates.ListRatesByPlan(ctx, planID)
}
