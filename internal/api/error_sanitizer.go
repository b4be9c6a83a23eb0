package api

import (
	"errors"
	"net/http"

	"github.com/maple/policydesk/internal/pkg/httputil"
	"github.com/maple/policydesk/internal/pkg/logger"
	"github.com/maple/policydesk/internal/service/catalog"
	"github.com/maple/policydesk/internal/service/contract"
	"github.com/maple/policydesk/internal/service/rating"
)

// Field names and messages of the validation envelope. Clients of the
// previous API match on these strings.
const (
	fieldCustomerName = "Customer Name"
	fieldCoveragePlan = "Coverage Plan"
	fieldRate         = "Rate"
	fieldGender       = "Gender"
	fieldID           = "Id"

	msgCustomerMissingCreate = "Customer does not exist!"
	msgCustomerMissingUpdate = "No Customer with this name!"
	msgPlanMissing           = "Coverage Plan not found!"
	msgRateMissing           = "Rate not found!"
	msgContractMissing       = "No Contract Found!"
)

// respondRatingError writes the 400 for a resolver failure. It returns
// false when err is not a rating error so the caller can fall through.
func respondRatingError(w http.ResponseWriter, r *http.Request, err error, customerMsg string) bool {
	switch {
	case errors.Is(err, rating.ErrCustomerNotFound):
		httputil.Validation(w, r, fieldCustomerName, customerMsg)
	case errors.Is(err, rating.ErrPlanNotFound):
		httputil.Validation(w, r, fieldCoveragePlan, msgPlanMissing)
	case errors.Is(err, rating.ErrRateNotFound):
		httputil.Validation(w, r, fieldRate, msgRateMissing)
	case errors.Is(err, rating.ErrInvalidGender):
		httputil.Validation(w, r, fieldGender, "Gender must be Male, Female or Other.")
	default:
		return false
	}
	return true
}

// respondStoreError maps the store and service sentinels shared by every
// resource. Anything unrecognised is logged and reported as a generic 500.
func respondStoreError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, contract.ErrNotFound):
		logger.Info("resource not found", "kind", kind, "path", r.URL.Path)
		httputil.NotFound(w, r, kind+" not found")
	case errors.Is(err, catalog.ErrIDMismatch):
		httputil.Validation(w, r, fieldID, "The id in the path does not match the id in the body.")
	case errors.Is(err, catalog.ErrInvalid):
		httputil.BadRequest(w, r, err.Error())
	case errors.Is(err, catalog.ErrReferenced):
		httputil.BadRequest(w, r, "A referenced "+referencedKind(kind)+" does not exist.")
	case errors.Is(err, catalog.ErrInUse):
		httputil.Error(w, r, http.StatusConflict, kind+" is still referenced by other records")
	case errors.Is(err, catalog.ErrDuplicate):
		httputil.Error(w, r, http.StatusConflict, kind+" already exists")
	case errors.Is(err, contract.ErrCustomerMismatch):
		httputil.Validation(w, r, fieldCustomerName, "Contract does not belong to this customer!")
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, contract.ErrConflict):
		logger.Error("write conflict", "kind", kind, "path", r.URL.Path)
		httputil.Error(w, r, http.StatusInternalServerError, httputil.InternalErrorMessage)
	default:
		httputil.InternalError(w, r, err)
	}
}

func referencedKind(kind string) string {
	switch kind {
	case kindRateChart:
		return kindCoveragePlan
	case kindContract:
		return "customer or coverage plan"
	default:
		return "row"
	}
}
