package memory

import (
	"context"
	"testing"
	"time"

	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*DB, *domain.CoveragePlan) {
	t.Helper()
	ctx := context.Background()
	db := New()
	plan := &domain.CoveragePlan{
		Name: "Canada 80s", EligibilityCountry: "CA",
		EligibilityDateFrom: domain.NewDate(1980, time.January, 1),
		EligibilityDateTo:   domain.NewDate(2000, time.January, 1),
	}
	require.NoError(t, db.CoveragePlans().Insert(ctx, plan))
	return db, plan
}

func TestInsertAssignsIDAndVersion(t *testing.T) {
	db, plan := seed(t)
	assert.Equal(t, int64(1), plan.ID)
	assert.Equal(t, int64(1), plan.Version)

	c := &domain.Customer{Name: "Alice", Country: "CA", DateOfBirth: domain.NewDate(1990, time.May, 1)}
	require.NoError(t, db.Customers().Insert(context.Background(), c))
	assert.Equal(t, int64(1), c.ID)
}

func TestUpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	db, plan := seed(t)

	plan.Name = "renamed"
	require.NoError(t, db.CoveragePlans().Update(ctx, plan))
	assert.Equal(t, int64(2), plan.Version)

	stale := *plan
	stale.Version = 1
	assert.ErrorIs(t, db.CoveragePlans().Update(ctx, &stale), catalog.ErrConflict)

	unversioned := *plan
	unversioned.Version = 0
	require.NoError(t, db.CoveragePlans().Update(ctx, &unversioned))
	assert.Equal(t, int64(3), unversioned.Version)
}

func TestUpdateMissingRowConflicts(t *testing.T) {
	db, _ := seed(t)
	ghost := &domain.CoveragePlan{ID: 42}
	assert.ErrorIs(t, db.CoveragePlans().Update(context.Background(), ghost), catalog.ErrConflict)
}

func TestReferentialChecks(t *testing.T) {
	ctx := context.Background()
	db, plan := seed(t)

	orphan := &domain.RateChart{PlanID: 99, Gender: domain.GenderMale, CutoffAge: 30}
	assert.ErrorIs(t, db.RateCharts().Insert(ctx, orphan), catalog.ErrReferenced)

	rate := &domain.RateChart{PlanID: plan.ID, Gender: domain.GenderMale, CutoffAge: 30}
	require.NoError(t, db.RateCharts().Insert(ctx, rate))
	assert.ErrorIs(t, db.CoveragePlans().Delete(ctx, plan.ID), catalog.ErrInUse)

	require.NoError(t, db.RateCharts().Delete(ctx, rate.ID))
	require.NoError(t, db.CoveragePlans().Delete(ctx, plan.ID))
	assert.ErrorIs(t, db.CoveragePlans().Delete(ctx, plan.ID), catalog.ErrNotFound)
}

func TestFindersOrdering(t *testing.T) {
	ctx := context.Background()
	db, plan := seed(t)
	second := &domain.CoveragePlan{
		EligibilityCountry:  "ca",
		EligibilityDateFrom: domain.NewDate(1970, time.January, 1),
		EligibilityDateTo:   domain.NewDate(2010, time.January, 1),
	}
	require.NoError(t, db.CoveragePlans().Insert(ctx, second))

	got, err := db.FindEligiblePlan(ctx, "CA", domain.NewDate(1990, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)

	got, err = db.FindEligiblePlan(ctx, "CA", domain.NewDate(1975, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = db.FindEligiblePlan(ctx, "US", domain.NewDate(1990, time.May, 1))
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	wide := &domain.RateChart{PlanID: plan.ID, Gender: domain.GenderFemale, CutoffAge: 65, NetPrice: decimal.NewFromInt(200)}
	tight := &domain.RateChart{PlanID: plan.ID, Gender: domain.GenderFemale, CutoffAge: 40, NetPrice: decimal.NewFromInt(120)}
	require.NoError(t, db.RateCharts().Insert(ctx, wide))
	require.NoError(t, db.RateCharts().Insert(ctx, tight))

	rate, err := db.FindRate(ctx, plan.ID, domain.GenderFemale, 34)
	require.NoError(t, err)
	assert.Equal(t, tight.ID, rate.ID)

	rate, err = db.FindRate(ctx, plan.ID, domain.GenderFemale, 40)
	require.NoError(t, err)
	assert.Equal(t, wide.ID, rate.ID)

	_, err = db.FindRate(ctx, plan.ID, domain.GenderMale, 34)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	rates, err := db.ListRatesByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}

func TestFindCustomerByNameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	db, _ := seed(t)
	require.NoError(t, db.Customers().Insert(ctx, &domain.Customer{Name: "Alice", Country: "CA"}))

	c, err := db.FindCustomerByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.Name)

	_, err = db.FindCustomerByName(ctx, "Bob")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
