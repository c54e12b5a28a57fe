package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http/api"
)

type OrderService interface {
	ProcessOrder(ctx context.Context, in apporder.ProcessOrderInput) (*apporder.ProcessOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*domorder.Order, error)
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, req dompay.Request) (*dompay.Result, error)
}

type InventoryService interface {
	Reserve(ctx context.Context, productID string, quantity int) (*appinv.ReserveResult, error)
	Get(ctx context.Context, productID string) (*dominv.Record, error)
}

// Handler serves whichever of the three services it was given.
type Handler struct {
	orders    OrderService
	payments  PaymentService
	inventory InventoryService
	metrics   http.Handler

	log       observability.Logger
	requests  observability.Counter
	durations observability.Histogram
}

const componentHTTPHandler = "http_server"

type Option func(*Handler)

func WithOrders(s OrderService) Option { return func(h *Handler) { h.orders = s } }
func WithPayments(s PaymentService) Option { return func(h *Handler) { h.payments = s } }
func WithInventory(s InventoryService) Option { return func(h *Handler) { h.inventory = s } }
func WithMetricsHandler(m http.Handler) Option { return func(h *Handler) { h.metrics = m } }

func NewHandler(tel observability.Observability, opts ...Option) *Handler {
	tel = observability.OrNop(tel)
	h := &Handler{
		log:       tel.Logger().With(observability.F("component", componentHTTPHandler)),
		requests:  tel.Metrics().Counter(observability.MHTTPRequests),
		durations: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.wrap("/health", h.handleHealth))
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
	if h.orders != nil {
		r.Post("/order", h.wrap("/order", h.handleProcessOrder))
		r.Get("/order/{orderId}", h.wrap("/order/{orderId}", h.handleGetOrder))
	}
	if h.payments != nil {
		r.Post("/pay", h.wrap("/pay", h.handleProcessPayment))
	}
	if h.inventory != nil {
		r.Post("/reserve", h.wrap("/reserve", h.handleReserve))
		r.Get("/inventory/{productId}", h.wrap("/inventory/{productId}", h.handleGetInventory))
	}
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleProcessOrder(w http.ResponseWriter, r *http.Request) {
	var req api.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.OrderResponse{Message: "Invalid request: " + err.Error()})
		return
	}

	res, err := h.orders.ProcessOrder(r.Context(), apporder.ProcessOrderInput{
		CustomerName:  req.CustomerName,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeJSON(w, statusFor(err), api.OrderResponse{Message: err.Error()})
		return
	}

	body := api.OrderResponse{
		Success:              res.Success,
		Message:              res.Message,
		OrderID:              res.OrderID,
		Status:               string(res.Status),
		PaymentTransactionID: res.PaymentTransactionID,
	}
	if res.OrderID != "" {
		body.TotalAmount = api.Money(res.TotalAmount)
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, body)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, api.Order{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		ProductID:    o.ProductID,
		Quantity:     o.Quantity,
		TotalAmount:  api.Money(o.TotalAmount),
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	})
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req api.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.PaymentResponse{Message: "Invalid request: " + err.Error()})
		return
	}

	res, err := h.payments.ProcessPayment(r.Context(), dompay.Request{
		OrderID:       req.OrderID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeJSON(w, statusFor(err), api.PaymentResponse{Message: err.Error()})
		return
	}

	body := api.PaymentResponse{
		Success:       res.Success,
		Message:       res.Message,
		PaymentID:     res.PaymentID,
		TransactionID: res.TransactionID,
		Status:        string(res.Status),
	}
	if res.PaymentID != "" {
		body.Amount = api.Money(res.Amount)
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, body)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req api.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ReservationResponse{
			Message: "Invalid request: " + err.Error(),
			Code:    api.CodeValidation,
		})
		return
	}

	res, err := h.inventory.Reserve(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, reservationFailure(err))
		return
	}

	remaining := res.RemainingAvailable
	writeJSON(w, http.StatusOK, api.ReservationResponse{
		Success:            true,
		Message:            "Inventory reserved successfully",
		ProductID:          res.ProductID,
		ReservedQuantity:   res.ReservedQuantity,
		UnitPrice:          api.Money(res.UnitPrice),
		TotalAmount:        api.Money(res.TotalAmount),
		RemainingAvailable: &remaining,
	})
}

func reservationFailure(err error) api.ReservationResponse {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return api.ReservationResponse{Message: "Product not found", Code: api.CodeNotFound}
	case errors.Is(err, dominv.ErrInsufficientStock):
		return api.ReservationResponse{Message: "Insufficient inventory available", Code: api.CodeInsufficientStock}
	case errors.Is(err, application.ErrValidation):
		return api.ReservationResponse{Message: err.Error(), Code: api.CodeValidation}
	default:
		return api.ReservationResponse{Message: "Failed to reserve inventory", Code: api.CodeUnexpected}
	}
}

func (h *Handler) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventory.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, api.Inventory{
		ProductID:         rec.ProductID,
		ProductName:       rec.ProductName,
		QuantityAvailable: rec.QuantityAvailable,
		ReservedQuantity:  rec.ReservedQuantity,
		UnitPrice:         api.Money(rec.UnitPrice),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, api.Error{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, dominv.ErrInsufficientStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
