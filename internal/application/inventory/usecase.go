package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	inventoryService  = "inventory-service"
	useCaseReserve    = "inventory.reserve"
	useCaseGet        = "inventory.get"
	reserveSpanName   = "ReserveInventory"
	getSpanName       = "GetInventory"
	supplierMinAmount = 5
)

var (
	ErrNotFound          = dominv.ErrNotFound
	ErrInsufficientStock = dominv.ErrInsufficientStock
	ErrRepository        = errors.New("inventory: repository failure")
)

type ReserveInput struct {
	ProductID string
	Quantity  int
}

type ReserveResult struct {
	ProductID          string
	ReservedQuantity   int
	UnitPrice          decimal.Decimal
	TotalAmount        decimal.Decimal
	RemainingAvailable int
}

// ReserveInventoryUseCase performs the cache-fronted atomic reservation and
// schedules the inventory housekeeping tasks on success.
type ReserveInventoryUseCase struct {
	repo       dominv.Repository
	cache      cache.Store
	dispatcher sideeffect.Dispatcher
	opts       Options
	obs        application.Instruments
}

func NewReserveInventoryUseCase(
	repo dominv.Repository,
	store cache.Store,
	dispatcher sideeffect.Dispatcher,
	opts Options,
	tel observability.Observability,
) *ReserveInventoryUseCase {
	return &ReserveInventoryUseCase{
		repo:       repo,
		cache:      store,
		dispatcher: dispatcher,
		opts:       opts,
		obs:        application.NewInstruments(tel, inventoryService),
	}
}

// Execute returns ErrNotFound or ErrInsufficientStock (possibly from the
// negative verdict cache) without touching the store's counts.
func (uc *ReserveInventoryUseCase) Execute(ctx context.Context, cmd ReserveInput) (_ *ReserveResult, err error) {
	ctx, run := uc.obs.Start(ctx, useCaseReserve, reserveSpanName,
		attribute.String("inventory.product_id", cmd.ProductID),
		attribute.Int("inventory.quantity", cmd.Quantity),
	)
	defer func() { run.Finish(err) }()
	logger := run.Logger()

	if cmd.ProductID == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, application.Validation("product id is required")
	}
	if cmd.Quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, application.Validation("quantity must be greater than zero")
	}

	checkKey := cache.InventoryCheck(cmd.ProductID)
	verdict, cerr := uc.cache.Get(ctx, checkKey)
	switch {
	case cerr == nil && verdict == cache.VerdictNotFound:
		run.Fail("NOT_FOUND_CACHED")
		return nil, ErrNotFound
	case cerr == nil && verdict == cache.VerdictInsufficient:
		run.Fail("INSUFFICIENT_STOCK_CACHED")
		return nil, ErrInsufficientStock
	case cerr != nil && !errors.Is(cerr, cache.ErrMiss):
		logger.Warn("inventory_verdict_lookup_failed", observability.F("error", cerr))
	}

	res, rerr := uc.repo.Reserve(ctx, cmd.ProductID, cmd.Quantity)
	switch {
	case errors.Is(rerr, dominv.ErrNotFound):
		run.Fail("NOT_FOUND")
		uc.remember(ctx, logger, checkKey, cache.VerdictNotFound, cache.TTLCheckNotFound)
		return nil, ErrNotFound
	case errors.Is(rerr, dominv.ErrInsufficientStock):
		run.Fail("INSUFFICIENT_STOCK")
		uc.remember(ctx, logger, checkKey, cache.VerdictInsufficient, cache.TTLCheckInsufficient)
		return nil, ErrInsufficientStock
	case errors.Is(rerr, dominv.ErrInvalidQuantity):
		run.Fail("QUANTITY_INVALID")
		return nil, application.Validation(rerr.Error())
	case rerr != nil:
		run.Fail("REPO_RESERVE_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, rerr)
	}

	if derr := uc.cache.Del(ctx, checkKey, cache.InventoryProduct(cmd.ProductID)); derr != nil {
		logger.Warn("inventory_cache_invalidate_failed", observability.F("error", derr))
	}
	uc.remember(ctx, logger, cache.InventoryReserved(cmd.ProductID), fmt.Sprint(cmd.Quantity), cache.TTLReserved)

	run.Span().AddEvent("inventory.reserved", trace.WithAttributes(
		attribute.Int("inventory.remaining", res.RemainingAvailable),
	))
	run.Annotate(
		observability.F("product_id", cmd.ProductID),
		observability.F("remaining_available", res.RemainingAvailable),
	)

	if uc.dispatcher != nil {
		uc.dispatcher.Dispatch(ctx, uc.tasks(cmd.ProductID, cmd.Quantity)...)
	}

	return &ReserveResult{
		ProductID:          res.ProductID,
		ReservedQuantity:   res.Quantity,
		UnitPrice:          res.UnitPrice,
		TotalAmount:        res.TotalAmount,
		RemainingAvailable: res.RemainingAvailable,
	}, nil
}

// Reserve is the in-process form of POST /reserve used by the payment service.
func (uc *ReserveInventoryUseCase) Reserve(ctx context.Context, productID string, quantity int) (*ReserveResult, error) {
	return uc.Execute(ctx, ReserveInput{ProductID: productID, Quantity: quantity})
}

func (uc *ReserveInventoryUseCase) tasks(productID string, quantity int) []sideeffect.Task {
	tasks := []sideeffect.Task{
		restockTask{repo: uc.repo, cache: uc.cache, productID: productID, threshold: uc.opts.RestockThreshold, delay: uc.opts.RestockDelay},
		analyticsTask{repo: uc.repo, cache: uc.cache, productID: productID, delay: uc.opts.AnalyticsDelay},
	}
	if quantity > supplierMinAmount {
		tasks = append(tasks, supplierTask{cache: uc.cache, productID: productID, email: uc.opts.SupplierEmail, delay: uc.opts.SupplierDelay})
	}
	return tasks
}

func (uc *ReserveInventoryUseCase) remember(ctx context.Context, logger observability.Logger, key, value string, ttl time.Duration) {
	if err := uc.cache.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("inventory_cache_write_failed",
			observability.F("key", key),
			observability.F("error", err),
		)
	}
}
