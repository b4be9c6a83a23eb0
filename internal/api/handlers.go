package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/pkg/httputil"
	"github.com/maple/policydesk/internal/pkg/logger"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/contract"
)

// Resource kinds, used in messages and logs.
const (
	kindContract     = "contract item"
	kindCustomer     = "customer"
	kindCoveragePlan = "coverage plan"
	kindRateChart    = "rate chart"
)

// RateLister filters rate charts by plan.
type RateLister interface {
	ListRatesByPlan(ctx context.Context, planID int64) ([]domain.RateChart, error)
}

// Handlers holds the HTTP handlers for every resource.
type Handlers struct {
	contracts *contract.Service
	customers *catalogHandler[domain.Customer]
	plans     *catalogHandler[domain.CoveragePlan]
	rates     *catalogHandler[domain.RateChart]
	rateList  RateLister
}

// NewHandlers creates the handler set.
func NewHandlers(
	contracts *contract.Service,
	customers *catalog.Service[domain.Customer],
	plans *catalog.Service[domain.CoveragePlan],
	rates *catalog.Service[domain.RateChart],
	rateList RateLister,
) *Handlers {
	return &Handlers{
		contracts: contracts,
		customers: &catalogHandler[domain.Customer]{svc: customers, kind: kindCustomer, base: "/api/customers"},
		plans:     &catalogHandler[domain.CoveragePlan]{svc: plans, kind: kindCoveragePlan, base: "/api/coverageplan"},
		rates:     &catalogHandler[domain.RateChart]{svc: rates, kind: kindRateChart, base: "/api/ratecharts"},
		rateList:  rateList,
	}
}

// contractRequest is the POST body for a new contract.
type contractRequest struct {
	CustomerName    string      `json:"customerName" validate:"required,max=200"`
	CustomerCountry string      `json:"customerCountry" validate:"max=64"`
	DOB             domain.Date `json:"dob"`
	Gender          string      `json:"gender"`
	// CustomerGender is accepted for older clients.
	CustomerGender string      `json:"customerGender"`
	SaleDate       domain.Date `json:"saleDate"`
}

// ListContracts returns every contract.
//
//	GET /api/contractitems
func (h *Handlers) ListContracts(w http.ResponseWriter, r *http.Request) {
	items, err := h.contracts.List(r.Context())
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	httputil.OK(w, r, items)
}

// GetContract returns one contract with its customer and plan attached.
//
//	GET /api/contractitems/{id}
func (h *Handlers) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.contracts.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, kindContract, err)
		return
	}
	httputil.OK(w, r, item)
}

// CreateContract resolves a plan and rate and issues a contract.
//
//	POST /api/contractitems
func (h *Handlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if !httputil.DecodeValid(w, r, &req) {
		return
	}
	gender := req.Gender
	if gender == "" {
		gender = req.CustomerGender
	}

	item, err := h.contracts.Create(r.Context(), contract.CreateInput{
		CustomerName:    req.CustomerName,
		CustomerCountry: req.CustomerCountry,
		DateOfBirth:     req.DOB,
		Gender:          gender,
		SaleDate:        req.SaleDate,
	})
	if err != nil {
		if respondRatingError(w, r, err, msgCustomerMissingCreate) {
			return
		}
		respondStoreError(w, r, kindContract, err)
		return
	}
	httputil.Created(w, r, fmt.Sprintf("/api/contractitems/%d", item.ID), item)
}

// RepriceContract re-resolves an existing contract from query parameters.
//
//	PUT /api/contractitems/{id}?customerName=&dob=&gender=
//	PUT /api/contractitems?id=&customerName=&dob=&gender=
func (h *Handlers) RepriceContract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = q.Get("id")
	}
	if raw == "" {
		httputil.Validation(w, r, fieldID, "The Id field is required.")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.Validation(w, r, fieldID, "The value '"+raw+"' is not valid.")
		return
	}

	var dob domain.Date
	if s := strings.TrimSpace(q.Get("dob")); s != "" {
		if dob, err = domain.ParseDate(s); err != nil {
			httputil.Validation(w, r, "dob", "The value '"+s+"' is not a valid date.")
			return
		}
	}

	_, err = h.contracts.Reprice(r.Context(), id, contract.RepriceInput{
		CustomerName: q.Get("customerName"),
		DateOfBirth:  dob,
		Gender:       q.Get("gender"),
	})
	if err != nil {
		if respondRatingError(w, r, err, msgCustomerMissingUpdate) {
			return
		}
		respondStoreError(w, r, kindContract, err)
		return
	}
	httputil.NoContent(w)
}

// DeleteContract removes a contract. A missing id is a validation error.
//
//	DELETE /api/contractitems/{id}
func (h *Handlers) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.contracts.Delete(r.Context(), id)
	if errors.Is(err, contract.ErrNotFound) {
		logger.Info("contract not found", "contract_id", id)
		httputil.Validation(w, r, fieldID, msgContractMissing)
		return
	}
	if err != nil {
		respondStoreError(w, r, kindContract, err)
		return
	}
	httputil.NoContent(w)
}

// ListRateCharts lists rate charts, optionally filtered by ?planId=.
//
//	GET /api/ratecharts
func (h *Handlers) ListRateCharts(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("planId")
	if raw == "" {
		h.rates.list(w, r)
		return
	}
	planID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.Validation(w, r, "planId", "The value '"+raw+"' is not valid.")
		return
	}
	rates, err := h.rateList.ListRatesByPlan(r.Context(), planID)
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	httputil.OK(w, r, rates)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.BadRequest(w, r, "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// catalogHandler serves plain CRUD for one entity type.
type catalogHandler[T catalog.Entity] struct {
	svc  *catalog.Service[T]
	kind string
	base string
}

func (h *catalogHandler[T]) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *catalogHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.List(r.Context())
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	httputil.OK(w, r, rows)
}

func (h *catalogHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, h.kind, err)
		return
	}
	httputil.OK(w, r, row)
}

func (h *catalogHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var e T
	if !httputil.DecodeValid(w, r, &e) {
		return
	}
	created, err := h.svc.Create(r.Context(), &e)
	if err != nil {
		respondStoreError(w, r, h.kind, err)
		return
	}
	httputil.Created(w, r, fmt.Sprintf("%s/%d", h.base, (*created).Key()), created)
}

func (h *catalogHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e T
	if !httputil.DecodeValid(w, r, &e) {
		return
	}
	if err := h.svc.Update(r.Context(), id, &e); err != nil {
		respondStoreError(w, r, h.kind, err)
		return
	}
	httputil.NoContent(w)
}

func (h *catalogHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondStoreError(w, r, h.kind, err)
		return
	}
	httputil.NoContent(w)
}
