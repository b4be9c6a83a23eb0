package rating

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPlanNotFound     = errors.New("no eligible coverage plan")
	ErrRateNotFound     = errors.New("no matching rate")
	ErrInvalidGender    = errors.New("unrecognised gender")
	ErrCustomerMismatch = errors.New("customer does not own the contract")
)
