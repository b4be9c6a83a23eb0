package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maple/policydesk/internal/domain"
	"github.com/maple/policydesk/internal/repository/memory"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/contract"
	"github.com/maple/policydesk/internal/service/rating"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db     *memory.DB
	router *chi.Mux
	planID int64
	rateID int64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := memory.New()

	require.NoError(t, db.Customers().Insert(ctx, &domain.Customer{
		Name: "Alice", Country: "CA", Gender: domain.GenderFemale,
		DateOfBirth: domain.NewDate(1990, time.May, 1),
	}))
	require.NoError(t, db.Customers().Insert(ctx, &domain.Customer{
		Name: "Bruno", Country: "CA", Gender: domain.GenderMale,
		DateOfBirth: domain.NewDate(1985, time.March, 3),
	}))
	require.NoError(t, db.Customers().Insert(ctx, &domain.Customer{
		Name: "Chen", Country: "NZ", DateOfBirth: domain.NewDate(1990, time.May, 1),
	}))
	plan := &domain.CoveragePlan{
		Name: "Canada 80s", EligibilityCountry: "CA",
		EligibilityDateFrom: domain.NewDate(1980, time.January, 1),
		EligibilityDateTo:   domain.NewDate(2000, time.January, 1),
	}
	require.NoError(t, db.CoveragePlans().Insert(ctx, plan))
	rate := &domain.RateChart{
		PlanID: plan.ID, Gender: domain.GenderFemale, CutoffAge: 40,
		NetPrice: decimal.RequireFromString("120.00"),
	}
	require.NoError(t, db.RateCharts().Insert(ctx, rate))
	require.NoError(t, db.RateCharts().Insert(ctx, &domain.RateChart{
		PlanID: plan.ID, Gender: domain.GenderMale, CutoffAge: 60,
		NetPrice: decimal.RequireFromString("95.50"),
	}))

	resolver := rating.NewResolver(db, rating.WithClock(func() time.Time {
		return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	}))
	h := NewHandlers(
		contract.NewService(db.Contracts(), db.Customers(), db.CoveragePlans(), resolver),
		catalog.NewService(db.Customers(), kindCustomer),
		catalog.NewService(db.CoveragePlans(), kindCoveragePlan),
		catalog.NewService(db.RateCharts(), kindRateChart),
		db,
	)
	router := SetupRoutes(h, NewHealthChecker(db, "memory"), []string{"*"})
	return &testEnv{db: db, router: router, planID: plan.ID, rateID: rate.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decodeBody(t, rec)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok, "no field errors in %s", rec.Body.String())
	return errs
}

var aliceBody = map[string]string{
	"customerName":    "Alice",
	"customerCountry": "CA",
	"dob":             "1990-05-01",
	"gender":          "female",
}

func TestCreateContractSnapshotsPrice(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/contractitems", aliceBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/contractitems/1", rec.Header().Get("Location"))
	created := decodeBody(t, rec)
	assert.Equal(t, 120.0, created["netPrice"])
	assert.Equal(t, "2024-06-01", created["saleDate"])

	update := map[string]interface{}{
		"rateChartId": env.rateID, "planId": env.planID,
		"gender": "Female", "cutoffAge": 40, "netPrice": 150.00,
	}
	rec = env.do(t, http.MethodPut, "/api/ratecharts/1", update)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/ContractItems/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, 120.0, got["netPrice"])
	customer, ok := got["customer"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice", customer["name"])
	assert.NotNil(t, got["coveragePlan"])
}

func TestCreateContractUsesCustomerGenderField(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]string{
		"customerName": "Bruno", "customerCountry": "CA",
		"dob": "1985-03-03", "customerGender": "MALE", "saleDate": "2024-02-29",
	}
	rec := env.do(t, http.MethodPost, "/api/contractitems", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, 95.5, created["netPrice"])
	assert.Equal(t, "2024-02-29", created["saleDate"])
}

func TestCreateContractFailures(t *testing.T) {
	env := setupTestEnv(t)

	cases := []struct {
		name    string
		body    map[string]string
		field   string
		message string
	}{
		{
			name:    "unknown customer",
			body:    map[string]string{"customerName": "Nobody", "customerCountry": "CA", "gender": "female"},
			field:   "Customer Name",
			message: "Customer does not exist!",
		},
		{
			name:    "no eligible plan",
			body:    map[string]string{"customerName": "Chen", "customerCountry": "NZ", "gender": "female"},
			field:   "Coverage Plan",
			message: "Coverage Plan not found!",
		},
		{
			name:    "no rate for gender",
			body:    map[string]string{"customerName": "Alice", "customerCountry": "CA", "gender": "unspecified"},
			field:   "Rate",
			message: "Rate not found!",
		},
		{
			name:    "customer name required",
			body:    map[string]string{"customerCountry": "CA"},
			field:   "customerName",
			message: "The customerName field is required.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/contractitems", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			errs := fieldErrors(t, rec)
			assert.Equal(t, []interface{}{tc.message}, errs[tc.field])
		})
	}

	rec := env.do(t, http.MethodGet, "/api/contractitems", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRepriceContract(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/contractitems", map[string]string{
		"customerName": "Alice", "customerCountry": "CA", "gender": "female", "saleDate": "2020-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rate, err := env.db.RateCharts().Get(context.Background(), env.rateID)
	require.NoError(t, err)
	rate.NetPrice = decimal.RequireFromString("150.00")
	require.NoError(t, env.db.RateCharts().Update(context.Background(), rate))

	rec = env.do(t, http.MethodPut, "/api/contractitems?id=1&customerName=Alice&dob=1990-05-01&gender=Female", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/contractitems/1", nil)
	got := decodeBody(t, rec)
	assert.Equal(t, 150.0, got["netPrice"])
	assert.Equal(t, "2024-06-01", got["saleDate"])
}

func TestRepriceContractFailures(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/contractitems", aliceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Nobody&gender=female", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []interface{}{"No Customer with this name!"}, fieldErrors(t, rec)["Customer Name"])

	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Bruno&gender=male", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldErrors(t, rec), "Customer Name")

	rec = env.do(t, http.MethodPut, "/api/contractitems?customerName=Alice&gender=female", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldErrors(t, rec), "Id")

	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Alice&dob=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldErrors(t, rec), "dob")

	rec = env.do(t, http.MethodPut, "/api/contractitems/99?customerName=Alice&gender=female", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Alice&gender=other", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []interface{}{"Rate not found!"}, fieldErrors(t, rec)["Rate"])

	ctx := context.Background()
	plan, err := env.db.CoveragePlans().Get(ctx, env.planID)
	require.NoError(t, err)
	plan.EligibilityDateFrom = domain.NewDate(1991, time.January, 1)
	require.NoError(t, env.db.CoveragePlans().Update(ctx, plan))

	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Alice&gender=female", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []interface{}{"Coverage Plan not found!"}, fieldErrors(t, rec)["Coverage Plan"])

	rec = env.do(t, http.MethodGet, "/api/contractitems/1", nil)
	got := decodeBody(t, rec)
	assert.Equal(t, 120.0, got["netPrice"])
	assert.EqualValues(t, 1, got["version"])
}

func TestGetContractNotFound(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/contractitems/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContract(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/contractitems", aliceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/contractitems/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/contractitems/1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []interface{}{"No Contract Found!"}, fieldErrors(t, rec)["Id"])
}

func TestCoveragePlanCRUD(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/coverageplan", map[string]string{
		"planName": "NZ Gold", "eligibilityCountry": "NZ",
		"eligibilityDateFrom": "1970-01-01", "eligibilityDateTo": "2010-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/coverageplan/2", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/coverageplan/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NZ Gold", decodeBody(t, rec)["planName"])

	rec = env.do(t, http.MethodGet, "/api/coverageplan", nil)
	var plans []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	assert.Len(t, plans, 2)

	rec = env.do(t, http.MethodDelete, "/api/coverageplan/2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/coverageplan/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/coverageplan/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoveragePlanUpdateIDMismatch(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]interface{}{
		"planId": 7, "planName": "Renamed", "eligibilityCountry": "CA",
		"eligibilityDateFrom": "1980-01-01", "eligibilityDateTo": "2000-01-01",
	}
	rec := env.do(t, http.MethodPut, "/api/coverageplan/1", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldErrors(t, rec), "Id")

	plan, err := env.db.CoveragePlans().Get(context.Background(), env.planID)
	require.NoError(t, err)
	assert.Equal(t, "Canada 80s", plan.Name)
}

func TestCoveragePlanUpdateVanishedRow(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]interface{}{
		"planId": 9, "eligibilityCountry": "CA",
		"eligibilityDateFrom": "1980-01-01", "eligibilityDateTo": "2000-01-01",
	}
	rec := env.do(t, http.MethodPut, "/api/coverageplan/9", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoveragePlanUpdateStaleVersion(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]interface{}{
		"planId": 1, "planName": "Renamed", "version": 5, "eligibilityCountry": "CA",
		"eligibilityDateFrom": "1980-01-01", "eligibilityDateTo": "2000-01-01",
	}
	rec := env.do(t, http.MethodPut, "/api/coverageplan/1", body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error has occurred.", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "version")

	body["version"] = 1
	rec = env.do(t, http.MethodPut, "/api/coverageplan/1", body)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCoveragePlanInUse(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/api/coverageplan/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRateChartValidationAndFilter(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/ratecharts", map[string]interface{}{
		"planId": env.planID, "gender": "robot", "cutoffAge": 30, "netPrice": "10",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fieldErrors(t, rec), "gender")

	rec = env.do(t, http.MethodPost, "/api/ratecharts", map[string]interface{}{
		"planId": 99, "gender": "Other", "cutoffAge": 30, "netPrice": "10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/ratecharts?planId=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rates []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	assert.Len(t, rates, 2)

	rec = env.do(t, http.MethodGet, "/api/ratecharts?planId=2", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCustomerCreate(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/customers", map[string]string{
		"name": "Dana", "country": "CA", "dateOfBirth": "1995-07-07", "gender": "female",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/customers/4", rec.Header().Get("Location"))
	assert.Equal(t, "Female", decodeBody(t, rec)["gender"])

	rec = env.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "NoDob", "country": "CA"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestXMLResponses(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/contractitems", aliceBody, "Accept", "application/xml")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "xml")
	assert.Contains(t, rec.Body.String(), "<NetPrice>120</NetPrice>")

	rec = env.do(t, http.MethodGet, "/api/contractitems", nil, "Accept", "application/xml")
	assert.Contains(t, rec.Body.String(), "<ArrayOfContractItem>")

	rec = env.do(t, http.MethodDelete, "/api/contractitems/77", nil, "Accept", "text/xml")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `<Field name="Id">`)
}

func TestHealthEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return assert.AnError }

func TestReadinessWhenStoreDown(t *testing.T) {
	hc := NewHealthChecker(downPinger{}, "postgres")
	rec := httptest.NewRecorder()
	hc.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRequestIDEchoed(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health/live", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/health/live", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/api/contractitems", aliceBody)
	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "policydesk_rating_resolutions_total")
}

func TestRepriceMismatchNotCountedAsResolved(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/contractitems", aliceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	before := resolutionCount(t, env, "resolved")
	rec = env.do(t, http.MethodPut, "/api/contractitems/1?customerName=Bruno&gender=male", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, before, resolutionCount(t, env, "resolved"))
	assert.Contains(t, env.do(t, http.MethodGet, "/metrics", nil).Body.String(),
		`policydesk_rating_resolutions_total{outcome="customer_mismatch"}`)
}

// resolutionCount reads one outcome of the resolver counter from /metrics.
func resolutionCount(t *testing.T, env *testEnv, outcome string) string {
	t.Helper()
	prefix := `policydesk_rating_resolutions_total{outcome="` + outcome + `"} `
	body := env.do(t, http.MethodGet, "/metrics", nil).Body.String()
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	return "0"
}

func TestPanicCountedAsServerError(t *testing.T) {
	env := setupTestEnv(t)
	env.router.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("handler blew up")
	})

	rec := env.do(t, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(),
		`policydesk_http_requests_total{method="GET",route="/boom",status="500"} 1`)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5s", formatUptime(5*time.Second))
	assert.Equal(t, "2m 3s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1d 1h 0m 0s", formatUptime(25*time.Hour))
}
