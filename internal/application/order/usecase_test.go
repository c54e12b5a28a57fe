package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	apppay "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect/sideeffecttest"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/obstest"
)

type world struct {
	orders    *memory.OrderRepository
	inventory *memory.InventoryRepository
	payments  *memory.PaymentRepository
	cache     cache.Store
	dispatch  *sideeffecttest.Inline
	tel       *obstest.Telemetry
	process   *ProcessOrderUseCase
	get       *GetOrderUseCase
}

type worldOption func(*world, *PaymentPort)

func newWorld(t *testing.T, successRate float64, opts ...worldOption) *world {
	t.Helper()
	w := &world{
		orders:    memory.NewOrderRepository(),
		inventory: memory.NewInventoryRepository(dominv.Catalogue()...),
		payments:  memory.NewPaymentRepository(),
		cache:     memory.NewCache(),
		dispatch:  &sideeffecttest.Inline{},
		tel:       obstest.New(),
	}

	reserve := appinv.NewReserveInventoryUseCase(w.inventory, w.cache, sideeffecttest.Discard{}, appinv.Options{RestockThreshold: 10}, w.tel)
	inv := apppay.InventoryFunc(func(ctx context.Context, productID string, quantity int) error {
		_, err := reserve.Reserve(ctx, productID, quantity)
		return err
	})
	var pay PaymentPort = apppay.NewProcessPaymentUseCase(w.payments, gateway.NewSimulated(successRate, 0), inv, id.UUID{}, sideeffecttest.Discard{}, apppay.Options{}, w.tel)

	for _, opt := range opts {
		opt(w, &pay)
	}

	w.process = NewProcessOrderUseCase(w.orders, w.cache, pay, id.UUID{}, w.dispatch, Options{}, w.tel)
	w.get = NewGetOrderUseCase(w.orders, w.cache, w.tel)
	return w
}

func input(quantity int) ProcessOrderInput {
	return ProcessOrderInput{CustomerName: "alice", ProductID: "1", Quantity: quantity, PaymentMethod: "CREDIT_CARD"}
}

func TestProcessOrderSuccess(t *testing.T) {
	w := newWorld(t, 1.0)
	ctx := context.Background()

	res, err := w.process.ProcessOrder(ctx, input(2))
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Order processed successfully", res.Message)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("200.00")))
	assert.NotEmpty(t, res.PaymentTransactionID)

	stored, err := w.orders.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)

	rec, err := w.inventory.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 48, rec.QuantityAvailable)
	assert.Equal(t, 2, rec.ReservedQuantity)

	count, err := w.cache.Get(ctx, cache.CustomerOrders("alice"))
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	assert.Equal(t, []string{"order.email_notification", "order.sms_notification", "order.audit"}, w.dispatch.Names())
	v, err := w.cache.Get(ctx, cache.EmailNotification(res.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "SENT", v)
	v, err = w.cache.Get(ctx, cache.SMSNotification(res.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", v)
}

func TestProcessOrderPaymentDeclined(t *testing.T) {
	w := newWorld(t, 0.0)
	ctx := context.Background()

	res, err := w.process.ProcessOrder(ctx, input(2))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Order failed: Payment processing failed", res.Message)

	// reservation stays committed
	rec, err := w.inventory.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 48, rec.QuantityAvailable)

	require.Equal(t, 1, w.payments.Len())
	assert.Empty(t, w.dispatch.Results())
	assertOnlyOrderHasStatus(t, w, domain.StatusPaymentFailed)
}

func TestProcessOrderInsufficientStock(t *testing.T) {
	w := newWorld(t, 1.0)

	res, err := w.process.ProcessOrder(context.Background(), input(1000))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Order failed: Failed to reserve inventory: Insufficient inventory available", res.Message)
	assert.Zero(t, w.payments.Len())
	assertOnlyOrderHasStatus(t, w, domain.StatusPaymentFailed)
}

type failingPayments struct{ err error }

func (f failingPayments) ProcessPayment(context.Context, dompay.Request) (*dompay.Result, error) {
	return nil, f.err
}

type panickingPayments struct{}

func (panickingPayments) ProcessPayment(context.Context, dompay.Request) (*dompay.Result, error) {
	panic("payment client exploded")
}

func TestProcessOrderFaultsMarkOrderFailed(t *testing.T) {
	tests := []struct {
		name   string
		port   PaymentPort
		prefix string
	}{
		{"transport error", failingPayments{err: errors.New("dial tcp: connection refused")}, "Order processing error: dial tcp"},
		{"panic", panickingPayments{}, "Order processing error: unexpected failure: payment client exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t, 1.0, func(_ *world, p *PaymentPort) { *p = tt.port })

			res, err := w.process.ProcessOrder(context.Background(), input(1))
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.False(t, res.Success)
			assert.True(t, strings.HasPrefix(res.Message, tt.prefix), res.Message)
			assertOnlyOrderHasStatus(t, w, domain.StatusPaymentFailed)
		})
	}
}

type stuckOrders struct{ *memory.OrderRepository }

func (stuckOrders) Update(context.Context, *domain.Order) error {
	return errors.New("connection reset")
}

type approvedPayments struct{}

func (approvedPayments) ProcessPayment(_ context.Context, req dompay.Request) (*dompay.Result, error) {
	return &dompay.Result{Success: true, Message: "Payment processed successfully", TransactionID: "txn-1", Amount: req.Amount, Status: dompay.StatusCompleted}, nil
}

func TestProcessOrderStoreOutageLeavesOrderNonTerminal(t *testing.T) {
	w := newWorld(t, 1.0)
	orders := stuckOrders{memory.NewOrderRepository()}
	process := NewProcessOrderUseCase(orders, w.cache, approvedPayments{}, id.UUID{}, w.dispatch, Options{}, w.tel)

	res, err := process.ProcessOrder(context.Background(), input(1))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "Order processing error: order: repository failure"), res.Message)
	assert.Empty(t, w.dispatch.Results())

	lines := w.tel.Log.Find("order_mark_failed_failed")
	require.Len(t, lines, 1)
	assert.Equal(t, string(domain.StatusCreated), lines[0].Fields["order_status"])
	assert.Equal(t, false, lines[0].Fields["terminal"])

	orderID, _ := lines[0].Fields["order_id"].(string)
	stored, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, stored.Status)
}

func TestProcessOrderValidation(t *testing.T) {
	w := newWorld(t, 1.0)

	_, err := w.process.ProcessOrder(context.Background(), input(0))
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.Empty(t, w.cache.(*memory.Cache).Keys(""))
}

type flakyCache struct {
	cache.Store
	failPrefix string
}

func (f flakyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if strings.HasPrefix(key, f.failPrefix) {
		return errors.New("cache unavailable")
	}
	return f.Store.Set(ctx, key, value, ttl)
}

func TestFailingTaskDoesNotAlterResult(t *testing.T) {
	w := newWorld(t, 1.0, func(w *world, _ *PaymentPort) {
		w.cache = flakyCache{Store: w.cache, failPrefix: "notification:email:"}
	})
	ctx := context.Background()

	res, err := w.process.ProcessOrder(ctx, input(2))
	require.NoError(t, err)
	assert.True(t, res.Success)

	results := w.dispatch.Results()
	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	stored, err := w.orders.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
}

func TestGetOrder(t *testing.T) {
	w := newWorld(t, 1.0)
	ctx := context.Background()

	res, err := w.process.ProcessOrder(ctx, input(2))
	require.NoError(t, err)

	first, err := w.get.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	second, err := w.get.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.StatusCompleted, first.Status)
	assert.True(t, first.TotalAmount.Equal(decimal.RequireFromString("200.00")))

	// store fallback repopulates the cache
	require.NoError(t, w.cache.Del(ctx, cache.Order(res.OrderID)))
	third, err := w.get.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, "200.00", third.TotalAmount.StringFixed(2))
	_, err = w.cache.Get(ctx, cache.Order(res.OrderID))
	assert.NoError(t, err)

	_, err = w.get.GetOrder(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = w.cache.Get(ctx, cache.Order("does-not-exist"))
	assert.ErrorIs(t, err, cache.ErrMiss)
}

// assertOnlyOrderHasStatus finds the single order written through the cache
// snapshot and checks both the snapshot and the store agree on status.
func assertOnlyOrderHasStatus(t *testing.T, w *world, want domain.Status) {
	t.Helper()
	var mc *memory.Cache
	switch c := w.cache.(type) {
	case *memory.Cache:
		mc = c
	case flakyCache:
		mc = c.Store.(*memory.Cache)
	}
	keys := mc.Keys("order:")
	require.Len(t, keys, 1)
	orderID := strings.TrimPrefix(keys[0], "order:")

	stored, err := w.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Status)

	snap, err := w.get.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, want, snap.Status)
}
