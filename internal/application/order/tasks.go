package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

var DefaultUnitPrice = decimal.RequireFromString("100.00")

// Options configures pricing and the post-order notification tasks. Zero
// delays run the tasks immediately; a zero UnitPrice means DefaultUnitPrice.
type Options struct {
	UnitPrice  decimal.Decimal
	EmailDelay time.Duration
	SMSDelay   time.Duration
	AuditDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		UnitPrice:  DefaultUnitPrice,
		EmailDelay: 500 * time.Millisecond,
		SMSDelay:   300 * time.Millisecond,
		AuditDelay: 100 * time.Millisecond,
	}
}

const (
	auditEventCompleted   = "ORDER_COMPLETED"
	auditDetailsCompleted = "Order successfully processed and payment confirmed"
)

type emailTask struct {
	cache   cache.Store
	orderID string
	delay   time.Duration
}

func (emailTask) Name() string { return "order.email_notification" }

func (t emailTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.EmailNotification(t.orderID), "SENT", cache.TTLNotification); err != nil {
		return err
	}
	logctx.FromOr(ctx, nil).Info("email_notification_sent", observability.F("order_id", t.orderID))
	return nil
}

type smsTask struct {
	cache   cache.Store
	orderID string
	delay   time.Duration
}

func (smsTask) Name() string { return "order.sms_notification" }

func (t smsTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.SMSNotification(t.orderID), "DELIVERED", cache.TTLNotification); err != nil {
		return err
	}
	logctx.FromOr(ctx, nil).Info("sms_notification_sent", observability.F("order_id", t.orderID))
	return nil
}

type auditTask struct {
	cache   cache.Store
	orderID string
	delay   time.Duration
}

func (auditTask) Name() string { return "order.audit" }

func (t auditTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}

	ts := time.Now().UnixMilli()
	payload, err := json.Marshal(struct {
		Event     string `json:"event"`
		Details   string `json:"details"`
		Timestamp int64  `json:"timestamp"`
	}{auditEventCompleted, auditDetailsCompleted, ts})
	if err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.AuditOrder(t.orderID, ts), string(payload), cache.TTLAudit); err != nil {
		return err
	}
	logctx.FromOr(ctx, nil).Info("audit_logged",
		observability.F("order_id", t.orderID),
		observability.F("event", auditEventCompleted),
	)
	return nil
}
