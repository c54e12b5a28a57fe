package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect/sideeffecttest"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/obstest"
)

type fixture struct {
	repo     *memory.PaymentRepository
	cache    *memory.Cache
	dispatch *sideeffecttest.Inline
	reserved []string
	reserve  func(productID string, quantity int) error
}

func (f *fixture) useCase(successRate float64) *ProcessPaymentUseCase {
	inv := InventoryFunc(func(_ context.Context, productID string, quantity int) error {
		f.reserved = append(f.reserved, productID)
		if f.reserve != nil {
			return f.reserve(productID, quantity)
		}
		return nil
	})
	opts := Options{Cache: f.cache, FraudThreshold: decimal.NewFromInt(10000)}
	return NewProcessPaymentUseCase(f.repo, gateway.NewSimulated(successRate, 0), inv, id.UUID{}, f.dispatch, opts, obstest.New())
}

func newFixture() *fixture {
	return &fixture{
		repo:     memory.NewPaymentRepository(),
		cache:    memory.NewCache(),
		dispatch: &sideeffecttest.Inline{},
	}
}

func request(amount string) dompay.Request {
	return dompay.Request{
		OrderID:       "o-1",
		ProductID:     "1",
		Quantity:      2,
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: "CREDIT_CARD",
	}
}

func TestProcessPaymentSuccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.useCase(1.0).ProcessPayment(ctx, request("200.00"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Payment processed successfully", res.Message)
	assert.Equal(t, dompay.StatusCompleted, res.Status)
	assert.NotEmpty(t, res.TransactionID)
	assert.True(t, res.Amount.Equal(decimal.RequireFromString("200.00")))

	stored, err := f.repo.Get(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusCompleted, stored.Status)
	assert.Equal(t, res.TransactionID, stored.TransactionID)

	assert.Equal(t, []string{"payment.fraud_check", "payment.risk_score"}, f.dispatch.Names())
	verdict, err := f.cache.Get(ctx, cache.FraudCheck("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", verdict)
	score, err := f.cache.Get(ctx, cache.RiskScore("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "10", score)
}

func TestProcessPaymentGatewayDeclinedKeepsReservation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.useCase(0.0).ProcessPayment(ctx, request("200.00"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Payment processing failed", res.Message)
	assert.Equal(t, dompay.StatusFailed, res.Status)
	assert.NotEmpty(t, res.TransactionID)

	stored, err := f.repo.Get(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusFailed, stored.Status)

	assert.Equal(t, []string{"1"}, f.reserved)
	assert.Empty(t, f.dispatch.Results())
}

func TestProcessPaymentReservationRefused(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"not found", dominv.ErrNotFound, "Failed to reserve inventory: Product not found"},
		{"insufficient", dominv.ErrInsufficientStock, "Failed to reserve inventory: Insufficient inventory available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.reserve = func(string, int) error { return tt.err }

			res, err := f.useCase(1.0).ProcessPayment(context.Background(), request("200.00"))
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.msg, res.Message)
			assert.Empty(t, res.PaymentID)
			assert.Zero(t, f.repo.Len())
		})
	}
}

func TestProcessPaymentInventoryTransportError(t *testing.T) {
	f := newFixture()
	f.reserve = func(string, int) error { return errors.New("connection refused") }

	res, err := f.useCase(1.0).ProcessPayment(context.Background(), request("200.00"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Payment processing error: connection refused", res.Message)
	assert.Zero(t, f.repo.Len())
}

func TestProcessPaymentValidation(t *testing.T) {
	f := newFixture()
	req := request("200.00")
	req.Quantity = 0

	_, err := f.useCase(1.0).ProcessPayment(context.Background(), req)
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.Empty(t, f.reserved)
}

func TestFraudAndRiskForLargeAmounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := request("12000.00")
	req.PaymentMethod = "PAYPAL"

	res, err := f.useCase(1.0).ProcessPayment(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)

	verdict, err := f.cache.Get(ctx, cache.FraudCheck("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "FLAGGED", verdict)
	count, err := f.cache.Get(ctx, cache.FraudHistory("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	score, err := f.cache.Get(ctx, cache.RiskScore("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "50", score)
	method, err := f.cache.Get(ctx, cache.RiskMethod("PAYPAL"))
	require.NoError(t, err)
	assert.Equal(t, "20", method)
}

func TestRiskUsesCachedMethodScore(t *testing.T) {
	store := memory.NewCache()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, cache.RiskMethod("CREDIT_CARD"), "3", cache.TTLRiskMethod))

	task := riskTask{cache: store, req: request("100.00")}
	require.NoError(t, task.Run(ctx))

	score, err := store.Get(ctx, cache.RiskScore("o-1"))
	require.NoError(t, err)
	assert.Equal(t, "3", score)
}
