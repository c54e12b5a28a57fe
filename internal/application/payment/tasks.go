package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// Options configures the post-payment tasks. Zero delays run them immediately.
type Options struct {
	Cache          cache.Store
	FraudThreshold decimal.Decimal
	FraudDelay     time.Duration
	RiskDelay      time.Duration
}

func DefaultOptions(store cache.Store) Options {
	return Options{
		Cache:          store,
		FraudThreshold: decimal.NewFromInt(10000),
		FraudDelay:     800 * time.Millisecond,
		RiskDelay:      400 * time.Millisecond,
	}
}

var riskAmountThreshold = decimal.NewFromInt(5000)

const (
	fraudFlagged  = "FLAGGED"
	fraudApproved = "APPROVED"

	riskLargeAmount    = 30
	riskCreditCard     = 10
	riskOtherMethod    = 20
	creditCardMethodID = "CREDIT_CARD"
)

type fraudTask struct {
	cache     cache.Store
	req       dompay.Request
	threshold decimal.Decimal
	delay     time.Duration
}

func (fraudTask) Name() string { return "payment.fraud_check" }

func (t fraudTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}

	verdict := fraudApproved
	if t.req.Amount.GreaterThan(t.threshold) {
		verdict = fraudFlagged
	}
	if err := t.cache.Set(ctx, cache.FraudCheck(t.req.OrderID), verdict, cache.TTLFraudCheck); err != nil {
		return err
	}
	if _, err := t.cache.Incr(ctx, cache.FraudHistory(t.req.OrderID), cache.TTLFraudHistory); err != nil {
		return err
	}

	logctx.FromOr(ctx, nil).Info("fraud_check_completed",
		observability.F("order_id", t.req.OrderID),
		observability.F("verdict", verdict),
	)
	return nil
}

type riskTask struct {
	cache cache.Store
	req   dompay.Request
	delay time.Duration
}

func (riskTask) Name() string { return "payment.risk_score" }

func (t riskTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}

	score := 0
	if t.req.Amount.GreaterThan(riskAmountThreshold) {
		score += riskLargeAmount
	}

	methodScore, err := t.methodScore(ctx)
	if err != nil {
		return err
	}
	score += methodScore

	if err := t.cache.Set(ctx, cache.RiskScore(t.req.OrderID), strconv.Itoa(score), cache.TTLRiskScore); err != nil {
		return err
	}

	logctx.FromOr(ctx, nil).Info("risk_score_calculated",
		observability.F("order_id", t.req.OrderID),
		observability.F("risk_score", score),
	)
	return nil
}

func (t riskTask) methodScore(ctx context.Context) (int, error) {
	key := cache.RiskMethod(t.req.PaymentMethod)
	raw, err := t.cache.Get(ctx, key)
	if err == nil {
		if n, perr := strconv.Atoi(raw); perr == nil {
			return n, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		return 0, err
	}

	score := riskOtherMethod
	if t.req.PaymentMethod == creditCardMethodID {
		score = riskCreditCard
	}
	if err := t.cache.Set(ctx, key, strconv.Itoa(score), cache.TTLRiskMethod); err != nil {
		return 0, err
	}
	return score, nil
}
