package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

type InventoryRepository struct {
	mu    sync.Mutex
	items map[string]*domain.Record
}

func NewInventoryRepository(seed ...*domain.Record) *InventoryRepository {
	r := &InventoryRepository{
		items: make(map[string]*domain.Record, len(seed)),
	}
	for _, rec := range seed {
		if rec != nil {
			r.items[rec.ProductID] = rec.Clone()
		}
	}
	return r
}

// Reserve holds the lock across check and mutation, so concurrent callers
// can never drive availability below zero.
func (r *InventoryRepository) Reserve(ctx context.Context, productID string, quantity int) (*domain.Reservation, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Reserve(quantity)
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Record, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}
