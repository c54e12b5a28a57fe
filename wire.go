package main

import (
	"context"
	"errors"
	"fmt"

	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppay "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/httpclient"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/rediscache"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
)

type stores struct {
	orders    domorder.Repository
	payments  dompay.Repository
	inventory dominv.Repository
}

type dependencies struct {
	routes  []httppresentation.Option
	closers []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

type inventoryService struct {
	*appinv.ReserveInventoryUseCase
	*appinv.GetInventoryUseCase
}

type orderService struct {
	*apporder.ProcessOrderUseCase
	*apporder.GetOrderUseCase
}

// wire builds the services hosted by cfg.Role. Peers that are not hosted
// locally are reached through their *_SERVICE_URL.
func wire(ctx context.Context, cfg config.Config, dispatch sideeffect.Dispatcher, tel observability.Observability) (*dependencies, error) {
	deps := &dependencies{}

	st, err := openStores(ctx, cfg, deps)
	if err != nil {
		deps.close()
		return nil, err
	}
	store, err := openCache(ctx, cfg, deps)
	if err != nil {
		deps.close()
		return nil, err
	}
	ids := id.UUID{}

	var reserve *appinv.ReserveInventoryUseCase
	if cfg.Hosts(config.RoleInventory) {
		opts := appinv.DefaultOptions()
		opts.RestockThreshold = cfg.RestockThreshold
		opts.SupplierEmail = cfg.SupplierEmail
		reserve = appinv.NewReserveInventoryUseCase(st.inventory, store, dispatch, opts, tel)
		deps.routes = append(deps.routes, httppresentation.WithInventory(inventoryService{
			reserve,
			appinv.NewGetInventoryUseCase(st.inventory, store, tel),
		}))
	}

	var pay apporder.PaymentPort
	if cfg.Hosts(config.RolePayment) {
		var inv apppay.InventoryPort
		switch {
		case cfg.InventoryServiceURL != "":
			inv = httpclient.NewInventory(cfg.InventoryServiceURL, nil)
		case reserve != nil:
			inv = apppay.InventoryFunc(func(ctx context.Context, productID string, quantity int) error {
				_, err := reserve.Reserve(ctx, productID, quantity)
				return err
			})
		default:
			deps.close()
			return nil, errors.New("payment role requires INVENTORY_SERVICE_URL")
		}

		opts := apppay.DefaultOptions(store)
		opts.FraudThreshold = cfg.FraudThreshold
		local := apppay.NewProcessPaymentUseCase(st.payments, gateway.NewSimulated(cfg.GatewaySuccessRate, cfg.GatewayLatency), inv, ids, dispatch, opts, tel)
		deps.routes = append(deps.routes, httppresentation.WithPayments(local))
		pay = local
	}

	if cfg.Hosts(config.RoleOrder) {
		if cfg.PaymentServiceURL != "" {
			pay = httpclient.NewPayment(cfg.PaymentServiceURL, nil)
		}
		if pay == nil {
			deps.close()
			return nil, errors.New("order role requires PAYMENT_SERVICE_URL")
		}
		opts := apporder.DefaultOptions()
		opts.UnitPrice = cfg.OrderUnitPrice
		deps.routes = append(deps.routes, httppresentation.WithOrders(orderService{
			apporder.NewProcessOrderUseCase(st.orders, store, pay, ids, dispatch, opts, tel),
			apporder.NewGetOrderUseCase(st.orders, store, tel),
		}))
	}

	return deps, nil
}

func openStores(ctx context.Context, cfg config.Config, deps *dependencies) (stores, error) {
	var seed []*dominv.Record
	if cfg.SeedInventory {
		seed = dominv.Catalogue()
	}

	if cfg.PostgresDSN == "" {
		return stores{
			orders:    memory.NewOrderRepository(),
			payments:  memory.NewPaymentRepository(),
			inventory: memory.NewInventoryRepository(seed...),
		}, nil
	}

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return stores{}, fmt.Errorf("postgres: %w", err)
	}
	deps.closers = append(deps.closers, pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		return stores{}, err
	}
	if len(seed) > 0 {
		if err := postgres.Seed(ctx, pool, seed); err != nil {
			return stores{}, err
		}
	}
	return stores{
		orders:    postgres.NewOrderRepository(pool),
		payments:  postgres.NewPaymentRepository(pool),
		inventory: postgres.NewInventoryRepository(pool),
	}, nil
}

func openCache(ctx context.Context, cfg config.Config, deps *dependencies) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return memory.NewCache(), nil
	}
	rdb := rediscache.New(cfg.RedisAddr)
	deps.closers = append(deps.closers, func() { _ = rdb.Close() })

	c := rediscache.NewCache(rdb)
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return c, nil
}
