package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// TimeNow is the clock used for every repository-stamped timestamp; tests
// override it to pin time.
var TimeNow = time.Now

// DefaultListLimit caps FindAll when the caller passes no limit.
const DefaultListLimit = 100

// engine is the generic create/read/update/delete core shared by every entity
// repository. It owns no data: storage access goes through the injected store,
// entity construction and patch merging through the injected functions.
type engine[T entity.Record, C any, P any] struct {
	store store.Store[T]
	build func(id string, now time.Time, input C) T
	apply func(rec T, patch P, now time.Time) T
}

// Create generates a fresh id, builds the entity and stores it. Input
// validation is the caller's responsibility.
func (e *engine[T, C, P]) Create(ctx context.Context, input C) (T, error) {
	rec := e.build(uuid.NewString(), TimeNow().UTC(), input)
	if err := e.store.Insert(ctx, rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// FindByID returns the entity at id, or absent.
func (e *engine[T, C, P]) FindByID(ctx context.Context, id string) (T, bool, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, store.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return rec, true, nil
}

// FindAll returns entities in insertion order, paginated by slicing. A
// non-positive limit falls back to DefaultListLimit.
func (e *engine[T, C, P]) FindAll(ctx context.Context, limit, offset int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return e.store.List(ctx, limit, offset)
}

// Update merges the patch onto the stored entity and persists the result. The
// merged values are not validated. Returns absent if no entity exists at id.
func (e *engine[T, C, P]) Update(ctx context.Context, id string, patch P) (T, bool, error) {
	var zero T

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}

	merged := e.apply(rec, patch, TimeNow().UTC())
	if err := e.store.Save(ctx, merged); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return merged, true, nil
}

// Delete removes the entity at id, reporting whether anything was removed.
func (e *engine[T, C, P]) Delete(ctx context.Context, id string) (bool, error) {
	return e.store.Delete(ctx, id)
}

// Count returns the number of stored entities.
func (e *engine[T, C, P]) Count(ctx context.Context) (int64, error) {
	return e.store.Count(ctx)
}

// HealthCheck verifies the storage container is reachable. It never errors;
// any failure reduces to false.
func (e *engine[T, C, P]) HealthCheck(ctx context.Context) bool {
	return e.store.Ping(ctx) == nil
}
