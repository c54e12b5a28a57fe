package payment

import "context"

// Gateway is the external payment provider. Charge returns nil when the charge
// is approved, ErrGatewayDeclined or ErrGatewayInterrupted otherwise.
type Gateway interface {
	Charge(ctx context.Context, p *Payment) error
}
