package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Failure codes shared by the negative verdict cache and the wire format.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
)

type Record struct {
	ProductID         string          `json:"productId"`
	ProductName       string          `json:"productName"`
	QuantityAvailable int             `json:"quantityAvailable"`
	ReservedQuantity  int             `json:"reservedQuantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func NewRecord(productID, name string, available int, unitPrice decimal.Decimal) (*Record, error) {
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Record{
		ProductID:         productID,
		ProductName:       name,
		QuantityAvailable: available,
		UnitPrice:         unitPrice,
		UpdatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}, nil
}

// Reserve moves quantity from available to reserved. Callers must hold
// whatever lock guards the record so the check and the mutation are one step.
func (r *Record) Reserve(quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > r.QuantityAvailable {
		return nil, ErrInsufficientStock
	}
	r.QuantityAvailable -= quantity
	r.ReservedQuantity += quantity
	r.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	return &Reservation{
		ProductID:          r.ProductID,
		Quantity:           quantity,
		UnitPrice:          r.UnitPrice,
		TotalAmount:        r.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		RemainingAvailable: r.QuantityAvailable,
		ReservedQuantity:   r.ReservedQuantity,
	}, nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Reservation is the result of a successful reserve.
type Reservation struct {
	ProductID          string
	Quantity           int
	UnitPrice          decimal.Decimal
	TotalAmount        decimal.Decimal
	RemainingAvailable int
	// ReservedQuantity is the product's total reserved count after this reservation.
	ReservedQuantity int
}
