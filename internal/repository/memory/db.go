package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
)

// DB holds the four tables.
type DB struct {
	mu sync.RWMutex

	customers *table[domain.Customer]
	plans     *table[domain.CoveragePlan]
	rates     *table[domain.RateChart]
	contracts *table[domain.ContractItem]
}

// New creates an empty database.
func New() *DB {
	db := &DB{}
	db.customers = newTable(db,
		func(c *domain.Customer, id, v int64) { c.ID, c.Version = id, v },
		func(c domain.Customer) int64 { return c.Version },
		nil,
		func(id int64) bool {
			return db.contracts.any(func(c domain.ContractItem) bool { return c.CustomerID == id })
		},
	)
	db.plans = newTable(db,
		func(p *domain.CoveragePlan, id, v int64) { p.ID, p.Version = id, v },
		func(p domain.CoveragePlan) int64 { return p.Version },
		nil,
		func(id int64) bool {
			return db.rates.any(func(r domain.RateChart) bool { return r.PlanID == id }) ||
				db.contracts.any(func(c domain.ContractItem) bool { return c.CoverageID == id })
		},
	)
	db.rates = newTable(db,
		func(r *domain.RateChart, id, v int64) { r.ID, r.Version = id, v },
		func(r domain.RateChart) int64 { return r.Version },
		func(r domain.RateChart) bool { return db.plans.has(r.PlanID) },
		nil,
	)
	db.contracts = newTable(db,
		func(c *domain.ContractItem, id, v int64) { c.ID, c.Version = id, v },
		func(c domain.ContractItem) int64 { return c.Version },
		func(c domain.ContractItem) bool {
			return db.customers.has(c.CustomerID) && db.plans.has(c.CoverageID)
		},
		nil,
	)
	return db
}

// Customers returns the customer store.
func (db *DB) Customers() catalog.Store[domain.Customer] { return db.customers }

// CoveragePlans returns the coverage plan store.
func (db *DB) CoveragePlans() catalog.Store[domain.CoveragePlan] { return db.plans }

// RateCharts returns the rate chart store.
func (db *DB) RateCharts() catalog.Store[domain.RateChart] { return db.rates }

// Contracts returns the contract item store.
func (db *DB) Contracts() catalog.Store[domain.ContractItem] { return db.contracts }

// Ping always succeeds.
func (db *DB) Ping(context.Context) error { return nil }

// FindCustomerByName returns the lowest-id customer whose name matches,
// ignoring case.
func (db *DB) FindCustomerByName(_ context.Context, name string) (*domain.Customer, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, c := range db.customers.sorted() {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

// FindEligiblePlan returns the lowest-id plan whose window contains dob.
func (db *DB) FindEligiblePlan(_ context.Context, country string, dob domain.Date) (*domain.CoveragePlan, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, p := range db.plans.sorted() {
		if p.Eligible(country, dob) {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

// FindRate returns the tightest matching bracket for the plan.
func (db *DB) FindRate(_ context.Context, planID int64, g domain.Gender, age int) (*domain.RateChart, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var best *domain.RateChart
	for _, r := range db.rates.sorted() {
		if r.PlanID != planID || !r.Covers(g, age) {
			continue
		}
		if best == nil || r.CutoffAge < best.CutoffAge {
			best = &r
		}
	}
	if best == nil {
		return nil, catalog.ErrNotFound
	}
	return best, nil
}

// ListRatesByPlan returns the rate rows of one plan ordered by id.
func (db *DB) ListRatesByPlan(_ context.Context, planID int64) ([]domain.RateChart, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := []domain.RateChart{}
	for _, r := range db.rates.sorted() {
		if r.PlanID == planID {
			out = append(out, r)
		}
	}
	return out, nil
}

// table is one entity's rows. Callers of the unexported helpers must hold
// db.mu.
type table[T catalog.Entity] struct {
	db      *DB
	rows    map[int64]T
	next    int64
	stamp   func(e *T, id, version int64)
	version func(e T) int64
	// refsOK reports whether every foreign key of e resolves.
	refsOK func(e T) bool
	// inUse reports whether another table references id.
	inUse func(id int64) bool
}

func newTable[T catalog.Entity](db *DB, stamp func(*T, int64, int64), version func(T) int64,
	refsOK func(T) bool, inUse func(int64) bool) *table[T] {
	return &table[T]{
		db:      db,
		rows:    make(map[int64]T),
		stamp:   stamp,
		version: version,
		refsOK:  refsOK,
		inUse:   inUse,
	}
}

func (t *table[T]) sorted() []T {
	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (t *table[T]) has(id int64) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) any(match func(T) bool) bool {
	for _, r := range t.rows {
		if match(r) {
			return true
		}
	}
	return false
}

func (t *table[T]) List(_ context.Context) ([]T, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return t.sorted(), nil
}

func (t *table[T]) Get(_ context.Context, id int64) (*T, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	r, ok := t.rows[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &r, nil
}

func (t *table[T]) Insert(_ context.Context, e *T) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.refsOK != nil && !t.refsOK(*e) {
		return catalog.ErrReferenced
	}
	t.next++
	t.stamp(e, t.next, 1)
	t.rows[t.next] = *e
	return nil
}

func (t *table[T]) Update(_ context.Context, e *T) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	cur, ok := t.rows[(*e).Key()]
	if !ok {
		return catalog.ErrConflict
	}
	if v := t.version(*e); v != 0 && v != t.version(cur) {
		return catalog.ErrConflict
	}
	if t.refsOK != nil && !t.refsOK(*e) {
		return catalog.ErrReferenced
	}
	t.stamp(e, (*e).Key(), t.version(cur)+1)
	t.rows[(*e).Key()] = *e
	return nil
}

func (t *table[T]) Delete(_ context.Context, id int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return catalog.ErrNotFound
	}
	if t.inUse != nil && t.inUse(id) {
		return catalog.ErrInUse
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T]) Exists(_ context.Context, id int64) (bool, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return t.has(id), nil
}
