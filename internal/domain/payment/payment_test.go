package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLifecycle(t *testing.T) {
	p := New("p-1", "o-1", decimal.RequireFromString("200.00"), "CREDIT_CARD", "txn-1")
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "txn-1", p.TransactionID)

	require.NoError(t, p.Complete())
	assert.Equal(t, StatusCompleted, p.Status)
	assert.ErrorIs(t, p.Fail(), ErrInvalidTransition)
}

func TestPaymentFail(t *testing.T) {
	p := New("p-1", "o-1", decimal.NewFromInt(1), "PAYPAL", "txn-1")
	require.NoError(t, p.Fail())
	assert.Equal(t, StatusFailed, p.Status)
	assert.ErrorIs(t, p.Complete(), ErrInvalidTransition)
}
