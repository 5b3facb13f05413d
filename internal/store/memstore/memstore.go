package memstore

import (
	"context"
	"fmt"
	"sync"

	"walletdesk/internal/entity"
	"walletdesk/internal/store"
)

// Column extracts a comparable column value from a record, standing in for the
// column addressing the SQL backend gets for free.
type Column[T entity.Record] func(rec T) any

// Map is an insertion-ordered in-memory store. All access is serialized
// through an RWMutex, so individual operations are internally consistent;
// multi-step flows (read, check, delete) are not atomic across calls.
type Map[T entity.Record] struct {
	mu      sync.RWMutex
	byID    map[string]T
	order   []string
	columns map[string]Column[T]
}

// NewMap builds a store whose FindBy/FindOneBy understand the given columns.
func NewMap[T entity.Record](columns map[string]Column[T]) *Map[T] {
	return &Map[T]{
		byID:    make(map[string]T),
		columns: columns,
	}
}

func (m *Map[T]) Insert(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.RecordID()
	if _, ok := m.byID[id]; ok {
		return fmt.Errorf("record %q already exists", id)
	}
	m.byID[id] = rec
	m.order = append(m.order, id)
	return nil
}

func (m *Map[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		var zero T
		return zero, store.ErrNotFound
	}
	return rec, nil
}

func (m *Map[T]) List(_ context.Context, limit, offset int) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(m.order) {
		return []T{}, nil
	}
	end := len(m.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]T, 0, end-offset)
	for _, id := range m.order[offset:end] {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *Map[T]) Save(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.RecordID()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	m.byID[id] = rec
	return nil
}

func (m *Map[T]) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Map[T]) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.byID)), nil
}

func (m *Map[T]) FindBy(_ context.Context, column string, value any, limit int) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	extract, ok := m.columns[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}

	out := []T{}
	for _, id := range m.order {
		rec := m.byID[id]
		if extract(rec) != value {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Map[T]) FindOneBy(ctx context.Context, column string, value any) (T, error) {
	matches, err := m.FindBy(ctx, column, value, 1)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(matches) == 0 {
		var zero T
		return zero, store.ErrNotFound
	}
	return matches[0], nil
}

func (m *Map[T]) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.byID == nil {
		return fmt.Errorf("backing map not initialized")
	}
	return nil
}
