package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/maple/policydesk/internal/pkg/logger"
)

// validator is implemented by entities with rules beyond struct tags.
type validator interface {
	Validate() error
}

// Service is the generic CRUD façade over a Store.
type Service[T Entity] struct {
	store Store[T]
	kind  string
}

// NewService creates a catalog service. kind names the entity in logs.
func NewService[T Entity](store Store[T], kind string) *Service[T] {
	return &Service[T]{store: store, kind: kind}
}

// Kind returns the entity name the service was created with.
func (s *Service[T]) Kind() string { return s.kind }

// List returns every row.
func (s *Service[T]) List(ctx context.Context) ([]T, error) {
	return s.store.List(ctx)
}

// Get returns one row or ErrNotFound.
func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.store.Get(ctx, id)
}

// Create validates and persists e, assigning its identity.
func (s *Service[T]) Create(ctx context.Context, e *T) (*T, error) {
	if err := check(e); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}
	logger.Info("catalog row created", "kind", s.kind, "id", (*e).Key())
	return e, nil
}

// Update overwrites the row at id with e. The ids must agree before anything
// is written. A conflict on a vanished row becomes ErrNotFound; any other
// conflict is returned as ErrConflict.
func (s *Service[T]) Update(ctx context.Context, id int64, e *T) error {
	if (*e).Key() != id {
		logger.Info("catalog update id mismatch", "kind", s.kind, "path_id", id, "body_id", (*e).Key())
		return ErrIDMismatch
	}
	if err := check(e); err != nil {
		return err
	}
	err := s.store.Update(ctx, e)
	if !errors.Is(err, ErrConflict) {
		return err
	}
	exists, existsErr := s.store.Exists(ctx, id)
	if existsErr != nil {
		return fmt.Errorf("check %s %d after conflict: %w", s.kind, id, existsErr)
	}
	if !exists {
		return ErrNotFound
	}
	return err
}

// Delete fetches then removes the row at id.
func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func check[T Entity](e *T) error {
	if v, ok := any(*e).(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}
