package rating

import (
	"context"

	"github.com/maple/policydesk/internal/domain"
)

// Finders return catalog.ErrNotFound when nothing matches.

// CustomerFinder looks customers up by display name.
type CustomerFinder interface {
	// FindCustomerByName returns the lowest-id customer whose name matches,
	// ignoring case.
	FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error)
}

// PlanFinder selects eligible coverage plans.
type PlanFinder interface {
	// FindEligiblePlan returns the lowest-id plan for country whose window
	// strictly contains dob.
	FindEligiblePlan(ctx context.Context, country string, dob domain.Date) (*domain.CoveragePlan, error)
}

// RateFinder selects rate chart rows.
type RateFinder interface {
	// FindRate returns the row of planID for gender with age < cutoff_age,
	// ordered by cutoff_age then id.
	FindRate(ctx context.Context, planID int64, gender domain.Gender, age int) (*domain.RateChart, error)
}

// Repository is everything the resolver reads.
type Repository interface {
	CustomerFinder
	PlanFinder
	RateFinder
}
