package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReserve(t *testing.T) {
	rec, err := NewRecord("1", "Laptop", 50, decimal.RequireFromString("999.99"))
	require.NoError(t, err)

	res, err := rec.Reserve(2)
	require.NoError(t, err)
	assert.Equal(t, 48, res.RemainingAvailable)
	assert.Equal(t, 2, res.ReservedQuantity)
	assert.True(t, res.UnitPrice.Equal(decimal.RequireFromString("999.99")))
	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("1999.98")))
	assert.Equal(t, 48, rec.QuantityAvailable)
	assert.Equal(t, 2, rec.ReservedQuantity)
}

func TestRecordReserveRejects(t *testing.T) {
	rec, err := NewRecord("1", "Laptop", 50, decimal.RequireFromString("999.99"))
	require.NoError(t, err)

	_, err = rec.Reserve(1000)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = rec.Reserve(0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, 50, rec.QuantityAvailable)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestCatalogue(t *testing.T) {
	recs := Catalogue()
	require.Len(t, recs, 5)
	assert.Equal(t, "Laptop", recs[0].ProductName)
	assert.Equal(t, 50, recs[0].QuantityAvailable)
}
