package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type OrderRepository struct {
	rows *table[*domain.Order]
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{rows: newTable((*domain.Order).Clone, domain.ErrConflict, domain.ErrNotFound)}
}

func (r *OrderRepository) Insert(_ context.Context, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("order repository: %w", errMissingID)
	}
	if err := r.rows.insert(o.ID, o); err != nil {
		return fmt.Errorf("order repository: insert %q: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id string) (*domain.Order, error) {
	o, err := r.rows.get(id)
	if err != nil {
		return nil, fmt.Errorf("order repository: get %q: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) Update(_ context.Context, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("order repository: %w", errMissingID)
	}
	if err := r.rows.replace(o.ID, o); err != nil {
		return fmt.Errorf("order repository: update %q: %w", o.ID, err)
	}
	return nil
}
