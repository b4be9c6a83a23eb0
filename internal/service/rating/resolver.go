package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/pkg/logger"
	"github.com/maple/policydesk/internal/pkg/metrics"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/shopspring/decimal"
)

// Applicant carries the rating inputs supplied by a caller.
type Applicant struct {
	CustomerName string
	// Country overrides the stored customer country when non-empty.
	Country string
	// DateOfBirth drives the age calculation. Zero means use the stored one.
	DateOfBirth domain.Date
	Gender      string
	// OwnerID, when non-zero, is the only customer id allowed to resolve.
	OwnerID int64
}

// Quote is a successful resolution.
type Quote struct {
	Customer *domain.Customer
	Plan     *domain.CoveragePlan
	Rate     *domain.RateChart
	NetPrice decimal.Decimal
	Age      int
	Gender   domain.Gender
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now. Used by tests to pin the current year.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithStrictGender makes unrecognised gender strings fail with
// ErrInvalidGender instead of resolving to Other.
func WithStrictGender(strict bool) Option {
	return func(r *Resolver) { r.strictGender = strict }
}

// Resolver is the eligibility and rating engine.
type Resolver struct {
	repo         Repository
	now          func() time.Time
	strictGender bool
}

// NewResolver creates a resolver over repo.
func NewResolver(repo Repository, opts ...Option) *Resolver {
	r := &Resolver{repo: repo, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Now returns the resolver's current time.
func (r *Resolver) Now() time.Time { return r.now() }

// Resolve finds the customer, the plan they are eligible for and the rate
// for their gender and age.
func (r *Resolver) Resolve(ctx context.Context, a Applicant) (*Quote, error) {
	q, err := r.resolve(ctx, a)
	metrics.RecordResolution(outcome(err))
	if err != nil {
		return nil, err
	}
	logger.Info("rate resolved",
		"customer_id", q.Customer.ID, "plan_id", q.Plan.ID, "rate_id", q.Rate.ID,
		"age", q.Age, "gender", string(q.Gender))
	return q, nil
}

func (r *Resolver) resolve(ctx context.Context, a Applicant) (*Quote, error) {
	cust, err := r.repo.FindCustomerByName(ctx, strings.TrimSpace(a.CustomerName))
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Info("rating: customer not found", "customer_name", a.CustomerName)
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if a.OwnerID != 0 && cust.ID != a.OwnerID {
		logger.Info("rating: customer does not own contract", "owner_id", a.OwnerID, "customer_id", cust.ID)
		return nil, ErrCustomerMismatch
	}

	country := a.Country
	if strings.TrimSpace(country) == "" {
		country = cust.Country
	}
	plan, err := r.repo.FindEligiblePlan(ctx, country, cust.DateOfBirth)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Info("rating: no eligible plan", "country", country, "customer_id", cust.ID)
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}

	dob := a.DateOfBirth
	if dob.IsZero() {
		dob = cust.DateOfBirth
	}
	age := domain.AgeAt(dob, r.now())

	if _, ok := domain.LookupGender(a.Gender); !ok && r.strictGender {
		return nil, ErrInvalidGender
	}
	gender := domain.ParseGender(a.Gender)

	rate, err := r.repo.FindRate(ctx, plan.ID, gender, age)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Info("rating: no rate", "plan_id", plan.ID, "gender", string(gender), "age", age)
		return nil, ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find rate: %w", err)
	}

	return &Quote{
		Customer: cust,
		Plan:     plan,
		Rate:     rate,
		NetPrice: rate.NetPrice,
		Age:      age,
		Gender:   gender,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeResolved
	case errors.Is(err, ErrCustomerNotFound):
		return metrics.OutcomeCustomerNotFound
	case errors.Is(err, ErrPlanNotFound):
		return metrics.OutcomePlanNotFound
	case errors.Is(err, ErrRateNotFound):
		return metrics.OutcomeRateNotFound
	case errors.Is(err, ErrInvalidGender):
		return metrics.OutcomeInvalidGender
	case errors.Is(err, ErrCustomerMismatch):
		return metrics.OutcomeCustomerMismatch
	default:
		return metrics.OutcomeError
	}
}
