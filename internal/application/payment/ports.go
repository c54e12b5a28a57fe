package payment

import "context"

type IDGenerator interface {
	NewID() string
}

// InventoryPort reserves stock before charging. Typed inventory errors
// (not found, insufficient) are reservation refusals; anything else is a
// transport or store fault.
type InventoryPort interface {
	Reserve(ctx context.Context, productID string, quantity int) error
}

// InventoryFunc adapts a function to InventoryPort.
type InventoryFunc func(ctx context.Context, productID string, quantity int) error

func (f InventoryFunc) Reserve(ctx context.Context, productID string, quantity int) error {
	return f(ctx, productID, quantity)
}
