package catalog

import "context"

// Entity is anything a Store can persist: it exposes its identity.
type Entity interface {
	Key() int64
}

// Store is the data access contract for one entity type. Implementations
// must be safe for concurrent use.
type Store[T Entity] interface {
	// List returns every row ordered by identity.
	List(ctx context.Context) ([]T, error)

	// Get returns a single row. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*T, error)

	// Insert persists a new row and writes the assigned identity and
	// version back into e.
	Insert(ctx context.Context, e *T) error

	// Update overwrites the row with e's identity. A non-zero version must
	// match the stored one. Returns ErrConflict when no row was written.
	Update(ctx context.Context, e *T) error

	// Delete removes a row. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a row with the identity is present.
	Exists(ctx context.Context, id int64) (bool, error)
}
