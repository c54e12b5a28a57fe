package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// Options tunes the post-reservation tasks. Zero delays run the tasks
// immediately.
type Options struct {
	RestockThreshold int
	SupplierEmail    string

	RestockDelay   time.Duration
	AnalyticsDelay time.Duration
	SupplierDelay  time.Duration
}

func DefaultOptions() Options {
	return Options{
		RestockThreshold: 10,
		SupplierEmail:    "supplier@example.com",
		RestockDelay:     200 * time.Millisecond,
		AnalyticsDelay:   600 * time.Millisecond,
		SupplierDelay:    300 * time.Millisecond,
	}
}

type restockTask struct {
	repo      dominv.Repository
	cache     cache.Store
	productID string
	threshold int
	delay     time.Duration
}

func (restockTask) Name() string { return "inventory.restock_check" }

func (t restockTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}
	rec, err := t.repo.Get(ctx, t.productID)
	if errors.Is(err, dominv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.QuantityAvailable >= t.threshold {
		return nil
	}

	payload, err := json.Marshal(struct {
		ProductID    string `json:"productId"`
		CurrentStock int    `json:"currentStock"`
		Threshold    int    `json:"threshold"`
		Status       string `json:"status"`
	}{t.productID, rec.QuantityAvailable, t.threshold, "PENDING"})
	if err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.RestockNotification(t.productID), string(payload), cache.TTLRestock); err != nil {
		return err
	}
	if _, err := t.cache.Incr(ctx, cache.RestockNotificationCount, 0); err != nil {
		return err
	}

	logctx.FromOr(ctx, nil).Info("restock_notification_scheduled",
		observability.F("product_id", t.productID),
		observability.F("current_stock", rec.QuantityAvailable),
	)
	return nil
}

type analyticsTask struct {
	repo      dominv.Repository
	cache     cache.Store
	productID string
	delay     time.Duration
}

func (analyticsTask) Name() string { return "inventory.analytics" }

func (t analyticsTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}
	rec, err := t.repo.Get(ctx, t.productID)
	if errors.Is(err, dominv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total := rec.QuantityAvailable + rec.ReservedQuantity
	var turnover float64
	if total > 0 {
		turnover = float64(rec.ReservedQuantity) / float64(total)
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(struct {
		ProductID    string  `json:"productId"`
		TurnoverRate float64 `json:"turnoverRate"`
		TotalStock   int     `json:"totalStock"`
		LastUpdated  int64   `json:"lastUpdated"`
	}{t.productID, turnover, total, now.UnixMilli()})
	if err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.AnalyticsInventory(t.productID), string(payload), cache.TTLAnalytics); err != nil {
		return err
	}
	if _, err := t.cache.HIncr(ctx, cache.AnalyticsDaily(now.Format(time.DateOnly)), "products_analyzed", cache.TTLAnalyticsDaily); err != nil {
		return err
	}

	logctx.FromOr(ctx, nil).Info("inventory_analytics_updated",
		observability.F("product_id", t.productID),
		observability.F("turnover_rate", turnover),
	)
	return nil
}

type supplierTask struct {
	cache     cache.Store
	productID string
	email     string
	delay     time.Duration
}

func (supplierTask) Name() string { return "inventory.supplier_notification" }

func (t supplierTask) Run(ctx context.Context) error {
	if err := sideeffect.Sleep(ctx, t.delay); err != nil {
		return err
	}

	ts := time.Now().UnixMilli()
	payload, err := json.Marshal(struct {
		ProductID     string `json:"productId"`
		SupplierEmail string `json:"supplierEmail"`
		Type          string `json:"type"`
		Timestamp     int64  `json:"timestamp"`
	}{t.productID, t.email, "LOW_STOCK", ts})
	if err != nil {
		return err
	}
	if err := t.cache.Set(ctx, cache.SupplierNotification(t.productID, ts), string(payload), cache.TTLSupplier); err != nil {
		return err
	}
	if err := t.cache.LPush(ctx, cache.SupplierHistory(t.email), string(payload), cache.TTLSupplierHistory); err != nil {
		return err
	}

	logctx.FromOr(ctx, nil).Info("supplier_notified",
		observability.F("product_id", t.productID),
		observability.F("supplier_email", t.email),
	)
	return nil
}
