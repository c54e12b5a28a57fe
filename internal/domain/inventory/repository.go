package inventory

import (
	"context"
)

type Repository interface {
	// Reserve atomically checks and decrements availability. It returns
	// ErrNotFound or ErrInsufficientStock without mutating anything on failure.
	Reserve(ctx context.Context, productID string, quantity int) (*Reservation, error)
	Get(ctx context.Context, productID string) (*Record, error)
}
