package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentHandlerLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/widgets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/widgets/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/widgets/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/widgets/{id}", "418"))

	assert.Equal(t, 3.0, after-before)
}

func TestRecordResolution(t *testing.T) {
	before := testutil.ToFloat64(resolutions.WithLabelValues(OutcomePlanNotFound))
	RecordResolution(OutcomePlanNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(resolutions.WithLabelValues(OutcomePlanNotFound))-before)
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordContractWrite("create")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "policydesk_contracts_writes_total")
}
