package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("payment: not found")
	ErrConflict           = errors.New("payment: already exists")
	ErrGatewayDeclined    = errors.New("payment: declined by gateway")
	ErrGatewayInterrupted = errors.New("payment: gateway call interrupted")
	ErrInvalidTransition  = errors.New("payment: invalid status transition")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

type Payment struct {
	ID            string
	OrderID       string
	Amount        decimal.Decimal
	PaymentMethod string
	Status        Status
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New returns a PENDING payment. The transaction id is assigned up front,
// before the gateway is called, whatever the outcome.
func New(id, orderID string, amount decimal.Decimal, method, transactionID string) *Payment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &Payment{
		ID:            id,
		OrderID:       orderID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        StatusPending,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (p *Payment) Complete() error { return p.settle(StatusCompleted) }

func (p *Payment) Fail() error { return p.settle(StatusFailed) }

func (p *Payment) settle(s Status) error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	p.Status = s
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Request is the order→payment call.
type Request struct {
	OrderID       string
	ProductID     string
	Quantity      int
	Amount        decimal.Decimal
	PaymentMethod string
}

// Result is the outcome of a payment attempt. Failures carry a human readable Message.
type Result struct {
	Success       bool
	Message       string
	PaymentID     string
	TransactionID string
	Amount        decimal.Decimal
	Status        Status
}
