package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppay "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect/sideeffecttest"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/obstest"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http/api"
)

type stack struct {
	server *httptest.Server
	tel    *obstest.Telemetry
	stock  *memory.InventoryRepository
}

func newStack(t *testing.T, successRate float64) *stack {
	t.Helper()
	tel := obstest.New()
	store := memory.NewCache()
	stock := memory.NewInventoryRepository(dominv.Catalogue()...)
	orders := memory.NewOrderRepository()

	reserve := appinv.NewReserveInventoryUseCase(stock, store, sideeffecttest.Discard{}, appinv.DefaultOptions(), tel)
	query := appinv.NewGetInventoryUseCase(stock, store, tel)
	inv := apppay.InventoryFunc(func(ctx context.Context, productID string, quantity int) error {
		_, err := reserve.Reserve(ctx, productID, quantity)
		return err
	})
	pay := apppay.NewProcessPaymentUseCase(memory.NewPaymentRepository(), gateway.NewSimulated(successRate, 0), inv, id.UUID{}, sideeffecttest.Discard{}, apppay.Options{}, tel)
	process := apporder.NewProcessOrderUseCase(orders, store, pay, id.UUID{}, sideeffecttest.Discard{}, apporder.Options{}, tel)
	get := apporder.NewGetOrderUseCase(orders, store, tel)

	h := NewHandler(tel,
		WithOrders(orderService{process, get}),
		WithPayments(pay),
		WithInventory(inventoryService{reserve, query}),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})),
	)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &stack{server: srv, tel: tel, stock: stock}
}

type orderService struct {
	*apporder.ProcessOrderUseCase
	*apporder.GetOrderUseCase
}

type inventoryService struct {
	*appinv.ReserveInventoryUseCase
	*appinv.GetInventoryUseCase
}

func (s *stack) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func (s *stack) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&body))
	return body
}

func TestOrderRoundTrip(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.post(t, "/order", `{"customerName":"alice","productId":"1","quantity":2,"paymentMethod":"CREDIT_CARD"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order processed successfully", body["message"])
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, json.Number("200.00"), body["totalAmount"])
	assert.NotEmpty(t, body["paymentTransactionId"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	orderID, _ := body["orderId"].(string)
	resp, body = s.get(t, "/order/"+orderID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, body["id"])
	assert.Equal(t, "alice", body["customerName"])
	assert.Equal(t, "COMPLETED", body["status"])

	rec, err := s.stock.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 48, rec.QuantityAvailable)
	assert.Equal(t, 2, rec.ReservedQuantity)
}

func TestOrderPaymentDeclined(t *testing.T) {
	s := newStack(t, 0)

	resp, body := s.post(t, "/order", `{"customerName":"bob","productId":"2","quantity":1,"paymentMethod":"CREDIT_CARD"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order failed: Payment processing failed", body["message"])
	assert.Equal(t, "PAYMENT_FAILED", body["status"])
}

func TestOrderRejectsInvalidBody(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.post(t, "/order", `{"customerName":"alice","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "Invalid request"))

	resp, body = s.post(t, "/order", `{"customerName":"alice","productId":"1","quantity":0,"paymentMethod":"CREDIT_CARD"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestGetUnknownOrder(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.get(t, "/order/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestReserveAndInventory(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.post(t, "/reserve", `{"productId":"4","quantity":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Inventory reserved successfully", body["message"])
	assert.Equal(t, json.Number("299.99"), body["unitPrice"])
	assert.Equal(t, json.Number("899.97"), body["totalAmount"])
	assert.Equal(t, json.Number("27"), body["remainingAvailable"])

	resp, body = s.get(t, "/inventory/4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Monitor", body["productName"])
	assert.Equal(t, json.Number("27"), body["quantityAvailable"])
	assert.Equal(t, json.Number("3"), body["reservedQuantity"])
}

func TestReserveFailures(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.post(t, "/reserve", `{"productId":"404","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Product not found", body["message"])
	assert.Equal(t, api.CodeNotFound, body["code"])

	resp, body = s.post(t, "/reserve", `{"productId":"4","quantity":31}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Insufficient inventory available", body["message"])
	assert.Equal(t, api.CodeInsufficientStock, body["code"])

	resp, _ = s.get(t, "/inventory/404")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPay(t *testing.T) {
	s := newStack(t, 1.0)

	resp, body := s.post(t, "/pay", `{"orderId":"o-1","productId":"3","quantity":2,"amount":159.98,"paymentMethod":"PAYPAL"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Payment processed successfully", body["message"])
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, json.Number("159.98"), body["amount"])
	assert.NotEmpty(t, body["paymentId"])

	resp, body = s.post(t, "/pay", `{"orderId":"o-2","productId":"3","quantity":1000,"amount":1,"paymentMethod":"PAYPAL"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Failed to reserve inventory: Insufficient inventory available", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newStack(t, 1.0)

	resp, err := http.Get(s.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestObservedOnce(t *testing.T) {
	s := newStack(t, 1.0)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/inventory/1", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	samples := s.tel.Met.Samples(observability.MHTTPRequests)
	require.Len(t, samples, 1)
	assert.Equal(t, "/inventory/{productId}", samples[0].Labels["route"])
	assert.Equal(t, "200", samples[0].Labels["status"])

	access := s.tel.Log.Find("http_access")
	require.Len(t, access, 1)
	assert.Equal(t, "req-42", access[0].Fields["request_id"])
	assert.Equal(t, 200, access[0].Fields["status"])
}

func TestUnconfiguredServiceRoutesAreAbsent(t *testing.T) {
	srv := httptest.NewServer(NewHandler(nil).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/order", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
