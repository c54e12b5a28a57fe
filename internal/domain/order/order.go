package order

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount          = errors.New("order: amount must be zero or greater")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

// moneyPlaces is the scale every stored and decoded amount carries.
const moneyPlaces = 2

type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusCompleted     Status = "COMPLETED"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
)

type Order struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customerName"`
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func New(id, customerName, productID string, quantity int, totalAmount decimal.Decimal) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if totalAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	now := Now()
	return &Order{
		ID:           id,
		CustomerName: customerName,
		ProductID:    productID,
		Quantity:     quantity,
		TotalAmount:  totalAmount.Round(moneyPlaces),
		Status:       StatusCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Complete moves a CREATED order to COMPLETED.
func (o *Order) Complete() error {
	next, err := stateOf(o.Status).OnPaymentSucceeded(o)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// PaymentFailed moves a CREATED order to PAYMENT_FAILED.
func (o *Order) PaymentFailed() error {
	next, err := stateOf(o.Status).OnPaymentFailed(o)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusPaymentFailed
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// UnmarshalJSON restores the two-place amount scale that JSON encoding drops.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.TotalAmount = p.TotalAmount.Round(moneyPlaces)
	*o = Order(p)
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = Now()
}

// Now is the wall clock truncated to the precision the relational store keeps,
// so snapshots read back from the store and from the cache compare equal.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
