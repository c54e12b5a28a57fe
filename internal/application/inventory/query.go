package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// GetInventoryUseCase reads a product record, serving a short-lived snapshot
// from the cache when present.
type GetInventoryUseCase struct {
	repo  dominv.Repository
	cache cache.Store
	obs   application.Instruments
}

func NewGetInventoryUseCase(repo dominv.Repository, store cache.Store, tel observability.Observability) *GetInventoryUseCase {
	return &GetInventoryUseCase{
		repo:  repo,
		cache: store,
		obs:   application.NewInstruments(tel, inventoryService),
	}
}

func (uc *GetInventoryUseCase) Execute(ctx context.Context, productID string) (_ *dominv.Record, err error) {
	ctx, run := uc.obs.Start(ctx, useCaseGet, getSpanName, attribute.String("inventory.product_id", productID))
	defer func() { run.Finish(err) }()
	logger := run.Logger()

	key := cache.InventoryProduct(productID)
	if raw, cerr := uc.cache.Get(ctx, key); cerr == nil {
		var rec dominv.Record
		if jerr := json.Unmarshal([]byte(raw), &rec); jerr == nil {
			run.Status = "CACHE_HIT"
			return &rec, nil
		}
		logger.Warn("inventory_snapshot_decode_failed", observability.F("key", key))
	} else if !errors.Is(cerr, cache.ErrMiss) {
		logger.Warn("inventory_snapshot_lookup_failed", observability.F("error", cerr))
	}

	rec, rerr := uc.repo.Get(ctx, productID)
	switch {
	case errors.Is(rerr, dominv.ErrNotFound):
		run.Fail("NOT_FOUND")
		return nil, ErrNotFound
	case rerr != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, rerr)
	}

	if raw, jerr := json.Marshal(rec); jerr == nil {
		if serr := uc.cache.Set(ctx, key, string(raw), cache.TTLProduct); serr != nil {
			logger.Warn("inventory_snapshot_write_failed", observability.F("error", serr))
		}
	}
	return rec, nil
}

// Get preserves the call shape used by handlers.
func (uc *GetInventoryUseCase) Get(ctx context.Context, productID string) (*dominv.Record, error) {
	return uc.Execute(ctx, productID)
}
