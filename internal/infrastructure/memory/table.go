package memory

import (
	"errors"
	"sync"
)

var errMissingID = errors.New("id is required")

// table stores clones keyed by id so callers never share memory with it.
type table[T any] struct {
	mu       sync.RWMutex
	rows     map[string]T
	clone    func(T) T
	conflict error
	missing  error
}

func newTable[T any](clone func(T) T, conflict, missing error) *table[T] {
	return &table[T]{rows: make(map[string]T), clone: clone, conflict: conflict, missing: missing}
}

func (t *table[T]) insert(id string, row T) error {
	if id == "" {
		return errMissingID
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return t.conflict
	}
	t.rows[id] = t.clone(row)
	return nil
}

func (t *table[T]) replace(id string, row T) error {
	if id == "" {
		return errMissingID
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return t.missing
	}
	t.rows[id] = t.clone(row)
	return nil
}

func (t *table[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, t.missing
	}
	return t.clone(row), nil
}

func (t *table[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
