package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
)

// Simulated stands in for an external payment provider: it waits a fixed
// latency and approves with the configured probability.
type Simulated struct {
	successRate float64
	latency     time.Duration
	draw        func() float64
}

func NewSimulated(successRate float64, latency time.Duration) *Simulated {
	return &Simulated{
		successRate: successRate,
		latency:     latency,
		draw:        rand.Float64,
	}
}

func (g *Simulated) Charge(ctx context.Context, p *payment.Payment) error {
	if err := sideeffect.Sleep(ctx, g.latency); err != nil {
		return fmt.Errorf("%w: %v", payment.ErrGatewayInterrupted, err)
	}
	if g.draw() >= g.successRate {
		return payment.ErrGatewayDeclined
	}
	return nil
}

var _ payment.Gateway = (*Simulated)(nil)
