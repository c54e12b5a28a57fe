// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Roles select which services a process hosts.
const (
	RoleAll       = "all"
	RoleOrder     = "order"
	RolePayment   = "payment"
	RoleInventory = "inventory"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Env            string
	Role           string
	LogLevel       string
	LogFile        string
	HTTPAddr       string

	PostgresDSN string
	RedisAddr   string

	PaymentServiceURL   string
	InventoryServiceURL string

	OrderUnitPrice     decimal.Decimal
	GatewaySuccessRate float64
	GatewayLatency     time.Duration

	DispatchWorkers int
	DispatchQueue   int
	TaskTimeout     time.Duration

	RestockThreshold int
	FraudThreshold   decimal.Decimal
	SupplierEmail    string

	OTelEndpoint  string
	SeedInventory bool
}

// Load reads .env when present (existing variables win) and then the
// environment. All invalid values are reported together.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from lookup, which returns "" for unset keys.
func FromEnv(lookup func(string) string) (Config, error) {
	p := parser{lookup: lookup}
	cfg := Config{
		ServiceName:    p.str("SERVICE_NAME", "minishop"),
		ServiceVersion: p.str("SERVICE_VERSION", "dev"),
		Env:            p.str("ENV", "dev"),
		Role:           strings.ToLower(p.str("SERVICE_ROLE", RoleAll)),
		LogLevel:       p.str("LOG_LEVEL", "info"),
		LogFile:        p.str("LOG_FILE", ""),
		HTTPAddr:       p.str("HTTP_ADDR", ":8080"),

		PostgresDSN: p.str("POSTGRES_DSN", ""),
		RedisAddr:   p.str("REDIS_ADDR", ""),

		PaymentServiceURL:   p.str("PAYMENT_SERVICE_URL", ""),
		InventoryServiceURL: p.str("INVENTORY_SERVICE_URL", ""),

		OrderUnitPrice:     p.money("ORDER_UNIT_PRICE", "100.00"),
		GatewaySuccessRate: p.real("GATEWAY_SUCCESS_RATE", 0.95),
		GatewayLatency:     p.duration("GATEWAY_LATENCY", 100*time.Millisecond),

		DispatchWorkers: p.integer("DISPATCH_WORKERS", 8),
		DispatchQueue:   p.integer("DISPATCH_QUEUE", 1024),
		TaskTimeout:     p.duration("TASK_TIMEOUT", 30*time.Second),

		RestockThreshold: p.integer("RESTOCK_THRESHOLD", 10),
		FraudThreshold:   p.money("FRAUD_THRESHOLD", "10000"),
		SupplierEmail:    p.str("SUPPLIER_EMAIL", "supplier@example.com"),

		OTelEndpoint:  p.str("OTEL_ENDPOINT", ""),
		SeedInventory: p.flag("SEED_INVENTORY", true),
	}

	switch cfg.Role {
	case RoleAll, RoleOrder, RolePayment, RoleInventory:
	default:
		p.fail("SERVICE_ROLE", cfg.Role, errors.New("want all, order, payment or inventory"))
	}
	if cfg.GatewaySuccessRate < 0 || cfg.GatewaySuccessRate > 1 {
		p.fail("GATEWAY_SUCCESS_RATE", lookup("GATEWAY_SUCCESS_RATE"), errors.New("must be within [0, 1]"))
	}
	if cfg.DispatchWorkers <= 0 {
		p.fail("DISPATCH_WORKERS", lookup("DISPATCH_WORKERS"), errors.New("must be positive"))
	}
	if cfg.DispatchQueue < 0 {
		p.fail("DISPATCH_QUEUE", lookup("DISPATCH_QUEUE"), errors.New("must not be negative"))
	}
	if !cfg.OrderUnitPrice.IsPositive() {
		p.fail("ORDER_UNIT_PRICE", lookup("ORDER_UNIT_PRICE"), errors.New("must be positive"))
	}

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

// Hosts reports whether the process serves role.
func (c Config) Hosts(role string) bool {
	return c.Role == RoleAll || c.Role == role
}

type parser struct {
	lookup func(string) string
	errs   []error
}

func (p *parser) fail(key, raw string, err error) {
	p.errs = append(p.errs, fmt.Errorf("config: %s=%q: %w", key, raw, err))
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.lookup(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) real(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) flag(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) money(key, def string) decimal.Decimal {
	raw := p.str(key, def)
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key, raw, err)
		return decimal.RequireFromString(def)
	}
	return v
}
