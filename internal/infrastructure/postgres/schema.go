package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL,
	product_id    TEXT NOT NULL,
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	total_amount  NUMERIC(12,2) NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id             TEXT PRIMARY KEY,
	order_id       TEXT NOT NULL,
	amount         NUMERIC(12,2) NOT NULL,
	payment_method TEXT NOT NULL,
	status         TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory (
	product_id         TEXT PRIMARY KEY,
	product_name       TEXT NOT NULL,
	quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
	reserved_quantity  INTEGER NOT NULL DEFAULT 0,
	unit_price         NUMERIC(12,2) NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Seed inserts records whose product id is not present yet.
func Seed(ctx context.Context, pool *pgxpool.Pool, records []*inventory.Record) error {
	for _, r := range records {
		_, err := pool.Exec(ctx, `
			INSERT INTO inventory (product_id, product_name, quantity_available, reserved_quantity, unit_price, updated_at)
			VALUES ($1, $2, $3, $4, $5::numeric, $6)
			ON CONFLICT (product_id) DO NOTHING`,
			r.ProductID, r.ProductName, r.QuantityAvailable, r.ReservedQuantity, r.UnitPrice.String(), r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("postgres: seed %s: %w", r.ProductID, err)
		}
	}
	return nil
}
