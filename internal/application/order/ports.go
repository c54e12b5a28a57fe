package order

import (
	"context"

	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

type IDGenerator interface {
	NewID() string
}

// PaymentPort charges for an order. A declined payment is a result with
// Success=false; the error is reserved for faults (transport, invalid input).
type PaymentPort interface {
	ProcessPayment(ctx context.Context, req dompay.Request) (*dompay.Result, error)
}
