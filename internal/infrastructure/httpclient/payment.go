package httpclient

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http/api"
)

// Payment charges through a remote payment service.
type Payment struct{ c client }

// NewPayment returns a client for baseURL; hc may be nil.
func NewPayment(baseURL string, hc *http.Client) *Payment {
	return &Payment{c: newClient(baseURL, hc)}
}

// ProcessPayment returns the remote result for both accepted and refused
// payments; the error is reserved for transport and protocol failures.
func (p *Payment) ProcessPayment(ctx context.Context, req dompay.Request) (*dompay.Result, error) {
	var out api.PaymentResponse
	_, err := p.c.do(ctx, http.MethodPost, "/pay", api.PaymentRequest{
		OrderID:       req.OrderID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	}, &out, http.StatusOK, http.StatusBadRequest)
	if err != nil {
		return nil, err
	}

	res := &dompay.Result{
		Success:       out.Success,
		Message:       out.Message,
		PaymentID:     out.PaymentID,
		TransactionID: out.TransactionID,
		Status:        dompay.Status(out.Status),
	}
	if out.Amount != "" {
		amount, err := decimal.NewFromString(string(out.Amount))
		if err != nil {
			return nil, err
		}
		res.Amount = amount
	}
	return res, nil
}
