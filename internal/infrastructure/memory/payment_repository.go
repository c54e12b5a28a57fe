package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

type PaymentRepository struct {
	rows *table[*domain.Payment]
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{rows: newTable((*domain.Payment).Clone, domain.ErrConflict, domain.ErrNotFound)}
}

func (r *PaymentRepository) Insert(_ context.Context, p *domain.Payment) error {
	if p == nil {
		return fmt.Errorf("payment repository: %w", errMissingID)
	}
	if err := r.rows.insert(p.ID, p); err != nil {
		return fmt.Errorf("payment repository: insert %q: %w", p.ID, err)
	}
	return nil
}

func (r *PaymentRepository) Update(_ context.Context, p *domain.Payment) error {
	if p == nil {
		return fmt.Errorf("payment repository: %w", errMissingID)
	}
	if err := r.rows.replace(p.ID, p); err != nil {
		return fmt.Errorf("payment repository: update %q: %w", p.ID, err)
	}
	return nil
}

func (r *PaymentRepository) Get(_ context.Context, id string) (*domain.Payment, error) {
	p, err := r.rows.get(id)
	if err != nil {
		return nil, fmt.Errorf("payment repository: get %q: %w", id, err)
	}
	return p, nil
}

// Len reports how many payments are stored.
func (r *PaymentRepository) Len() int { return r.rows.count() }
