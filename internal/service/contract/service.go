package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/pkg/logger"
	"github.com/maple/policydesk/internal/pkg/metrics"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/rating"
)

// Service implements the contract lifecycle.
type Service struct {
	repo      Repository
	customers CustomerGetter
	plans     PlanGetter
	resolver  Resolver
}

// NewService creates a contract service.
func NewService(repo Repository, customers CustomerGetter, plans PlanGetter, resolver Resolver) *Service {
	return &Service{repo: repo, customers: customers, plans: plans, resolver: resolver}
}

// CreateInput is what a caller supplies to issue a contract.
type CreateInput struct {
	CustomerName    string
	CustomerCountry string
	DateOfBirth     domain.Date
	Gender          string
	// SaleDate defaults to today when zero.
	SaleDate domain.Date
}

// RepriceInput re-resolves an existing contract.
type RepriceInput struct {
	CustomerName string
	DateOfBirth  domain.Date
	Gender       string
}

// List returns every contract without attached customer or plan.
func (s *Service) List(ctx context.Context) ([]domain.ContractItem, error) {
	return s.repo.List(ctx)
}

// Get returns a contract with its customer and coverage plan attached.
func (s *Service) Get(ctx context.Context, id int64) (*domain.ContractItem, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract %d: %w", id, err)
	}

	cust, err := s.customers.Get(ctx, c.CustomerID)
	switch {
	case err == nil:
		c.Customer = cust
	case !errors.Is(err, catalog.ErrNotFound):
		return nil, fmt.Errorf("attach customer %d: %w", c.CustomerID, err)
	}

	plan, err := s.plans.Get(ctx, c.CoverageID)
	switch {
	case err == nil:
		c.CoveragePlan = plan
	case !errors.Is(err, catalog.ErrNotFound):
		return nil, fmt.Errorf("attach coverage plan %d: %w", c.CoverageID, err)
	}
	return c, nil
}

// Create resolves a plan and rate for the applicant and persists a new
// contract priced at the rate's current net price.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.ContractItem, error) {
	q, err := s.resolver.Resolve(ctx, rating.Applicant{
		CustomerName: in.CustomerName,
		Country:      in.CustomerCountry,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
	})
	if err != nil {
		return nil, err
	}

	sale := in.SaleDate
	if sale.IsZero() {
		sale = domain.DateOf(s.resolver.Now())
	}
	c := &domain.ContractItem{
		CustomerID: q.Customer.ID,
		CoverageID: q.Plan.ID,
		SaleDate:   sale,
		NetPrice:   q.NetPrice,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert contract: %w", err)
	}
	metrics.RecordContractWrite("create")
	logger.Info("contract created", "contract_id", c.ID, "customer_id", c.CustomerID, "plan_id", c.CoverageID)
	return c, nil
}

// Reprice re-runs the resolver for the contract at id and overwrites its
// coverage plan, net price and sale date. The resolved customer must own
// the contract.
func (s *Service) Reprice(ctx context.Context, id int64, in RepriceInput) (*domain.ContractItem, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract %d: %w", id, err)
	}

	q, err := s.resolver.Resolve(ctx, rating.Applicant{
		CustomerName: in.CustomerName,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
		OwnerID:      c.CustomerID,
	})
	if err != nil {
		return nil, err
	}

	c.CoverageID = q.Plan.ID
	c.NetPrice = q.NetPrice
	c.SaleDate = domain.DateOf(s.resolver.Now())
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, catalog.ErrConflict) {
			logger.Error("contract reprice conflict", "contract_id", id, "version", c.Version)
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update contract %d: %w", id, err)
	}
	metrics.RecordContractWrite("reprice")
	logger.Info("contract repriced", "contract_id", id, "plan_id", c.CoverageID)
	return c, nil
}

// Delete removes the contract at id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete contract %d: %w", id, err)
	}
	metrics.RecordContractWrite("delete")
	return nil
}
