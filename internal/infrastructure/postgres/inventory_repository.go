package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Reserve is a single conditional UPDATE; the row is only touched when enough
// stock is available. A miss is classified by a follow-up existence check.
func (r *InventoryRepository) Reserve(ctx context.Context, productID string, quantity int) (*domain.Reservation, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var (
		price     string
		available int
		reserved  int
	)
	err := r.pool.QueryRow(ctx, `
		UPDATE inventory
		SET quantity_available = quantity_available - $2,
		    reserved_quantity  = reserved_quantity + $2,
		    updated_at         = date_trunc('microseconds', now())
		WHERE product_id = $1 AND quantity_available >= $2
		RETURNING unit_price::text, quantity_available, reserved_quantity`,
		productID, quantity).Scan(&price, &available, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyMiss(ctx, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: reserve: %w", err)
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("inventory: reserve: unit price: %w", err)
	}
	return &domain.Reservation{
		ProductID:          productID,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		TotalAmount:        unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		RemainingAvailable: available,
		ReservedQuantity:   reserved,
	}, nil
}

func (r *InventoryRepository) classifyMiss(ctx context.Context, productID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory WHERE product_id = $1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("inventory: reserve: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Record, error) {
	var (
		rec   domain.Record
		price string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT product_id, product_name, quantity_available, reserved_quantity, unit_price::text, updated_at
		FROM inventory WHERE product_id = $1`, productID).
		Scan(&rec.ProductID, &rec.ProductName, &rec.QuantityAvailable, &rec.ReservedQuantity, &price, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: get: %w", err)
	}
	if rec.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("inventory: get: unit price: %w", err)
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}
