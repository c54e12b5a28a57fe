package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	paymentService  = "payment-service"
	useCasePayment  = "payment.process"
	paymentSpanName = "ProcessPayment"
	inventoryPeer   = "inventory"
	reserveEndpoint = "POST /reserve"
	gatewayPeer     = "gateway"
	chargeEndpoint  = "charge"

	msgSuccess       = "Payment processed successfully"
	msgGatewayFailed = "Payment processing failed"
)

var ErrRepository = errors.New("payment: repository failure")

// ProcessPaymentUseCase reserves inventory, records a PENDING payment, calls
// the gateway and settles the payment. A reservation is kept even when the
// charge fails.
type ProcessPaymentUseCase struct {
	repo        dompay.Repository
	gateway     dompay.Gateway
	inventory   InventoryPort
	idGenerator IDGenerator
	dispatcher  sideeffect.Dispatcher
	opts        Options
	obs         application.Instruments
}

func NewProcessPaymentUseCase(
	repo dompay.Repository,
	gateway dompay.Gateway,
	inventory InventoryPort,
	idGen IDGenerator,
	dispatcher sideeffect.Dispatcher,
	opts Options,
	tel observability.Observability,
) *ProcessPaymentUseCase {
	return &ProcessPaymentUseCase{
		repo:        repo,
		gateway:     gateway,
		inventory:   inventory,
		idGenerator: idGen,
		dispatcher:  dispatcher,
		opts:        opts,
		obs:         application.NewInstruments(tel, paymentService),
	}
}

// Execute reports business failures in the result; the error is only set
// for invalid input.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, cmd dompay.Request) (_ *dompay.Result, err error) {
	ctx, run := uc.obs.Start(ctx, useCasePayment, paymentSpanName,
		attribute.String("payment.order_id", cmd.OrderID),
		attribute.String("payment.method", cmd.PaymentMethod),
		attribute.String("payment.amount", cmd.Amount.StringFixed(2)),
	)
	defer func() { run.Finish(err) }()
	logger := run.Logger()

	switch {
	case cmd.OrderID == "":
		run.Fail("ORDER_ID_REQUIRED")
		return nil, application.Validation("order id is required")
	case cmd.ProductID == "":
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, application.Validation("product id is required")
	case cmd.Quantity <= 0:
		run.Fail("QUANTITY_INVALID")
		return nil, application.Validation("quantity must be greater than zero")
	case cmd.Amount.IsNegative():
		run.Fail("AMOUNT_INVALID")
		return nil, application.Validation("amount must be zero or greater")
	case cmd.PaymentMethod == "":
		run.Fail("PAYMENT_METHOD_REQUIRED")
		return nil, application.Validation("payment method is required")
	}

	reserveStart := time.Now()
	rerr := uc.inventory.Reserve(ctx, cmd.ProductID, cmd.Quantity)
	uc.obs.External(inventoryPeer, reserveEndpoint, reserveStart, rerr)
	if rerr != nil {
		if isReservationRefusal(rerr) {
			run.Fail("RESERVATION_REFUSED")
			return &dompay.Result{Success: false, Message: "Failed to reserve inventory: " + ReservationMessage(rerr)}, nil
		}
		run.Fail("RESERVATION_ERROR")
		run.Annotate(observability.F("cause", rerr.Error()))
		return processingError(rerr), nil
	}
	run.Span().AddEvent("inventory.reserved")

	p := dompay.New(uc.idGenerator.NewID(), cmd.OrderID, cmd.Amount, cmd.PaymentMethod, uc.idGenerator.NewID())
	if ierr := uc.repo.Insert(ctx, p); ierr != nil {
		run.Fail("REPO_INSERT_FAILED")
		return processingError(fmt.Errorf("%w: %w", ErrRepository, ierr)), nil
	}
	run.Span().SetAttributes(
		attribute.String("payment.id", p.ID),
		attribute.String("payment.transaction_id", p.TransactionID),
	)

	chargeStart := time.Now()
	gerr := uc.gateway.Charge(ctx, p)
	uc.obs.External(gatewayPeer, chargeEndpoint, chargeStart, gerr)

	if gerr != nil {
		_ = p.Fail()
	} else {
		_ = p.Complete()
	}
	// detached: a settled attempt must not stay PENDING
	if uerr := uc.repo.Update(context.WithoutCancel(ctx), p); uerr != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return processingError(fmt.Errorf("%w: %w", ErrRepository, uerr)), nil
	}

	run.Annotate(
		observability.F("payment_id", p.ID),
		observability.F("payment_status", string(p.Status)),
	)
	result := &dompay.Result{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Status:        p.Status,
	}

	if gerr != nil {
		run.Fail("GATEWAY_DECLINED")
		if errors.Is(gerr, dompay.ErrGatewayInterrupted) {
			run.Status = "GATEWAY_INTERRUPTED"
		}
		logger.Warn("payment_gateway_failed", observability.F("error", gerr))
		result.Message = msgGatewayFailed
		return result, nil
	}

	run.Span().AddEvent("payment.completed", trace.WithAttributes(attribute.String("payment.id", p.ID)))
	if uc.dispatcher != nil && uc.opts.Cache != nil {
		uc.dispatcher.Dispatch(ctx, uc.tasks(cmd)...)
	}

	result.Success = true
	result.Message = msgSuccess
	return result, nil
}

// ProcessPayment is the in-process form of POST /pay used by the order service.
func (uc *ProcessPaymentUseCase) ProcessPayment(ctx context.Context, req dompay.Request) (*dompay.Result, error) {
	return uc.Execute(ctx, req)
}

func (uc *ProcessPaymentUseCase) tasks(req dompay.Request) []sideeffect.Task {
	return []sideeffect.Task{
		fraudTask{cache: uc.opts.Cache, req: req, threshold: uc.opts.FraudThreshold, delay: uc.opts.FraudDelay},
		riskTask{cache: uc.opts.Cache, req: req, delay: uc.opts.RiskDelay},
	}
}

func isReservationRefusal(err error) bool {
	return errors.Is(err, dominv.ErrNotFound) ||
		errors.Is(err, dominv.ErrInsufficientStock) ||
		errors.Is(err, application.ErrValidation)
}

// ReservationMessage renders an inventory refusal for humans.
func ReservationMessage(err error) string {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return "Product not found"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "Insufficient inventory available"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

func processingError(err error) *dompay.Result {
	return &dompay.Result{Success: false, Message: "Payment processing error: " + err.Error()}
}
