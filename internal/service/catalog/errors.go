package catalog

import "errors"

// Sentinel errors shared by every Store implementation and the service.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("write conflict")
	ErrIDMismatch = errors.New("id in path does not match id in body")
	ErrInvalid    = errors.New("invalid entity")
	ErrReferenced = errors.New("referenced row does not exist")
	ErrInUse      = errors.New("row is still referenced")
	ErrDuplicate  = errors.New("duplicate row")
)
