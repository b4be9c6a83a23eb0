package contract

import (
	"errors"

	"github.com/maple/policydesk/internal/service/rating"
)

var (
	ErrNotFound         = errors.New("contract not found")
	ErrCustomerMismatch = rating.ErrCustomerMismatch
	ErrConflict         = errors.New("contract changed concurrently")
)
