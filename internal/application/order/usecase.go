package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cache"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	orderService      = "order-service"
	useCaseOrder      = "order.process"
	useCaseGet        = "order.get"
	processSpanName   = "ProcessOrder"
	getSpanName       = "GetOrder"
	paymentPeer       = "payment"
	payEndpoint       = "POST /pay"
	msgOrderSucceeded = "Order processed successfully"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

type ProcessOrderInput struct {
	CustomerName  string
	ProductID     string
	Quantity      int
	PaymentMethod string
}

type ProcessOrderResult struct {
	Success              bool
	Message              string
	OrderID              string
	Status               domain.Status
	TotalAmount          decimal.Decimal
	PaymentTransactionID string
}

// ProcessOrderUseCase coordinates an order: persist CREATED, charge through
// the payment service, settle the status and fan out notifications. Faults
// never escape Execute; they become failure results and leave no order in
// CREATED.
type ProcessOrderUseCase struct {
	repo        domain.Repository
	cache       cache.Store
	payments    PaymentPort
	idGenerator IDGenerator
	dispatcher  sideeffect.Dispatcher
	opts        Options
	obs         application.Instruments
}

func NewProcessOrderUseCase(
	repo domain.Repository,
	store cache.Store,
	payments PaymentPort,
	idGen IDGenerator,
	dispatcher sideeffect.Dispatcher,
	opts Options,
	tel observability.Observability,
) *ProcessOrderUseCase {
	if opts.UnitPrice.IsZero() {
		opts.UnitPrice = DefaultUnitPrice
	}
	return &ProcessOrderUseCase{
		repo:        repo,
		cache:       store,
		payments:    payments,
		idGenerator: idGen,
		dispatcher:  dispatcher,
		opts:        opts,
		obs:         application.NewInstruments(tel, orderService),
	}
}

// Execute returns an error only for invalid input.
func (uc *ProcessOrderUseCase) Execute(ctx context.Context, cmd ProcessOrderInput) (res *ProcessOrderResult, err error) {
	ctx, run := uc.obs.Start(ctx, useCaseOrder, processSpanName,
		attribute.String("order.customer_name", cmd.CustomerName),
		attribute.String("order.product_id", cmd.ProductID),
		attribute.Int("order.quantity", cmd.Quantity),
	)
	defer func() { run.Finish(err) }()
	logger := run.Logger()

	switch {
	case cmd.CustomerName == "":
		run.Fail("CUSTOMER_NAME_REQUIRED")
		return nil, application.Validation("customer name is required")
	case cmd.ProductID == "":
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, application.Validation("product id is required")
	case cmd.Quantity <= 0:
		run.Fail("QUANTITY_INVALID")
		return nil, application.Validation("quantity must be greater than zero")
	case cmd.PaymentMethod == "":
		run.Fail("PAYMENT_METHOD_REQUIRED")
		return nil, application.Validation("payment method is required")
	}

	var entity *domain.Order

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error("order_processing_panic",
			observability.F("panic", r),
			observability.F("stack", string(debug.Stack())),
		)
		run.Fail("PANIC")
		res, err = uc.fault(ctx, logger, entity, fmt.Errorf("%w: %v", application.ErrUnexpected, r)), nil
	}()

	total := uc.opts.UnitPrice.Mul(decimal.NewFromInt(int64(cmd.Quantity)))
	entity, derr := domain.New(uc.idGenerator.NewID(), cmd.CustomerName, cmd.ProductID, cmd.Quantity, total)
	if derr != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return uc.fault(ctx, logger, nil, derr), nil
	}
	if ierr := uc.repo.Insert(ctx, entity); ierr != nil {
		run.Fail("REPO_INSERT_FAILED")
		entity = nil
		return uc.fault(ctx, logger, nil, fmt.Errorf("%w: %w", ErrRepository, ierr)), nil
	}
	run.Span().SetAttributes(attribute.String("order.id", entity.ID))
	run.Span().AddEvent("order.created", trace.WithAttributes(
		attribute.String("order.total_amount", total.StringFixed(2)),
	))
	run.Annotate(observability.F("order_id", entity.ID))

	uc.snapshot(ctx, logger, entity)
	if _, cerr := uc.cache.Incr(ctx, cache.CustomerOrders(cmd.CustomerName), cache.TTLCustomerOrders); cerr != nil {
		logger.Warn("customer_order_count_failed", observability.F("error", cerr))
	}

	payStart := time.Now()
	pay, perr := uc.payments.ProcessPayment(ctx, dompay.Request{
		OrderID:       entity.ID,
		ProductID:     cmd.ProductID,
		Quantity:      cmd.Quantity,
		Amount:        total,
		PaymentMethod: cmd.PaymentMethod,
	})
	uc.obs.External(paymentPeer, payEndpoint, payStart, perr)
	if perr != nil {
		run.Fail("PAYMENT_CALL_FAILED")
		return uc.fault(ctx, logger, entity, perr), nil
	}

	if pay == nil || !pay.Success {
		msg := "Payment processing failed"
		if pay != nil && pay.Message != "" {
			msg = pay.Message
		}
		run.Fail("PAYMENT_FAILED")
		run.Span().AddEvent("payment.failed", trace.WithAttributes(attribute.String("error.message", msg)))
		if serr := uc.settle(ctx, entity, (*domain.Order).PaymentFailed); serr != nil {
			return uc.fault(ctx, logger, entity, serr), nil
		}
		return &ProcessOrderResult{
			Success:     false,
			Message:     "Order failed: " + msg,
			OrderID:     entity.ID,
			Status:      entity.Status,
			TotalAmount: entity.TotalAmount,
		}, nil
	}

	if serr := uc.settle(ctx, entity, (*domain.Order).Complete); serr != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return uc.fault(ctx, logger, entity, serr), nil
	}
	run.Span().AddEvent("payment.succeeded", trace.WithAttributes(
		attribute.String("payment.transaction_id", pay.TransactionID),
	))

	if uc.dispatcher != nil {
		uc.dispatcher.Dispatch(ctx, uc.tasks(entity.ID)...)
	}

	return &ProcessOrderResult{
		Success:              true,
		Message:              msgOrderSucceeded,
		OrderID:              entity.ID,
		Status:               entity.Status,
		TotalAmount:          entity.TotalAmount,
		PaymentTransactionID: pay.TransactionID,
	}, nil
}

// ProcessOrder preserves the call shape used by handlers.
func (uc *ProcessOrderUseCase) ProcessOrder(ctx context.Context, input ProcessOrderInput) (*ProcessOrderResult, error) {
	return uc.Execute(ctx, input)
}

// settle applies a terminal transition, persists it and refreshes the snapshot.
// On a failed write the in-memory order is rolled back to match the store.
func (uc *ProcessOrderUseCase) settle(ctx context.Context, o *domain.Order, transition func(*domain.Order) error) error {
	prior := *o
	if err := transition(o); err != nil {
		return err
	}
	if err := uc.repo.Update(context.WithoutCancel(ctx), o); err != nil {
		*o = prior
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	uc.snapshot(ctx, nil, o)
	return nil
}

// fault converts an error into a failure result, driving a persisted
// non-terminal order to PAYMENT_FAILED first. When the store rejects that
// write too, the row stays CREATED; the log line records it as non-terminal.
func (uc *ProcessOrderUseCase) fault(ctx context.Context, logger observability.Logger, o *domain.Order, cause error) *ProcessOrderResult {
	logger.Error("order_processing_failed", observability.F("error", cause))

	if o != nil && !o.IsTerminal() {
		if err := uc.settle(ctx, o, (*domain.Order).PaymentFailed); err != nil {
			logger.Error("order_mark_failed_failed",
				observability.F("order_id", o.ID),
				observability.F("order_status", string(o.Status)),
				observability.F("terminal", false),
				observability.F("error", err),
			)
		}
	}
	return &ProcessOrderResult{Success: false, Message: "Order processing error: " + cause.Error()}
}

func (uc *ProcessOrderUseCase) snapshot(ctx context.Context, logger observability.Logger, o *domain.Order) {
	if logger == nil {
		logger = uc.obs.Logger()
	}
	raw, err := json.Marshal(o)
	if err == nil {
		err = uc.cache.Set(ctx, cache.Order(o.ID), string(raw), cache.TTLOrder)
	}
	if err != nil {
		logger.Warn("order_snapshot_write_failed",
			observability.F("order_id", o.ID),
			observability.F("error", err),
		)
	}
}

func (uc *ProcessOrderUseCase) tasks(orderID string) []sideeffect.Task {
	return []sideeffect.Task{
		emailTask{cache: uc.cache, orderID: orderID, delay: uc.opts.EmailDelay},
		smsTask{cache: uc.cache, orderID: orderID, delay: uc.opts.SMSDelay},
		auditTask{cache: uc.cache, orderID: orderID, delay: uc.opts.AuditDelay},
	}
}
