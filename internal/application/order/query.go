package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// GetOrderUseCase reads an order cache-first. Misses are never cached.
type GetOrderUseCase struct {
	repo  domain.Repository
	cache cache.Store
	obs   application.Instruments
}

func NewGetOrderUseCase(repo domain.Repository, store cache.Store, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{
		repo:  repo,
		cache: store,
		obs:   application.NewInstruments(tel, orderService),
	}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID string) (_ *domain.Order, err error) {
	ctx, run := uc.obs.Start(ctx, useCaseGet, getSpanName, attribute.String("order.id", orderID))
	defer func() { run.Finish(err) }()
	logger := run.Logger()

	if orderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	}

	key := cache.Order(orderID)
	if raw, cerr := uc.cache.Get(ctx, key); cerr == nil {
		var o domain.Order
		if jerr := json.Unmarshal([]byte(raw), &o); jerr == nil {
			run.Status = "CACHE_HIT"
			return &o, nil
		}
		logger.Warn("order_snapshot_decode_failed", observability.F("key", key))
	} else if !errors.Is(cerr, cache.ErrMiss) {
		logger.Warn("order_snapshot_lookup_failed", observability.F("error", cerr))
	}

	o, rerr := uc.repo.Get(ctx, orderID)
	switch {
	case errors.Is(rerr, domain.ErrNotFound):
		run.Fail("NOT_FOUND")
		return nil, ErrNotFound
	case rerr != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, rerr)
	}

	if raw, jerr := json.Marshal(o); jerr == nil {
		if serr := uc.cache.Set(ctx, key, string(raw), cache.TTLOrder); serr != nil {
			logger.Warn("order_snapshot_write_failed", observability.F("error", serr))
		}
	}
	return o, nil
}

// GetOrder preserves the call shape used by handlers.
func (uc *GetOrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.Execute(ctx, orderID)
}
