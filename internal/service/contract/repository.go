package contract

import (
	"context"
	"time"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/rating"
)

// Repository is the data access contract for contract items.
type Repository interface {
	catalog.Store[domain.ContractItem]
}

// CustomerGetter loads the customer attached on single-item reads.
type CustomerGetter interface {
	Get(ctx context.Context, id int64) (*domain.Customer, error)
}

// PlanGetter loads the coverage plan attached on single-item reads.
type PlanGetter interface {
	Get(ctx context.Context, id int64) (*domain.CoveragePlan, error)
}

// Resolver prices an applicant. Satisfied by *rating.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, a rating.Applicant) (*rating.Quote, error)
	Now() time.Time
}
