package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

func newPayment() *payment.Payment {
	return payment.New("p-1", "o-1", decimal.NewFromInt(100), "CREDIT_CARD", "txn-1")
}

func TestSimulatedOutcomes(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewSimulated(1.0, 0).Charge(ctx, newPayment()))
	assert.ErrorIs(t, NewSimulated(0.0, 0).Charge(ctx, newPayment()), payment.ErrGatewayDeclined)

	g := NewSimulated(0.95, 0)
	g.draw = func() float64 { return 0.95 }
	assert.ErrorIs(t, g.Charge(ctx, newPayment()), payment.ErrGatewayDeclined)
	g.draw = func() float64 { return 0.5 }
	assert.NoError(t, g.Charge(ctx, newPayment()))
}

func TestSimulatedCancelledWaitFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSimulated(1.0, time.Second).Charge(ctx, newPayment())
	assert.ErrorIs(t, err, payment.ErrGatewayInterrupted)
}
