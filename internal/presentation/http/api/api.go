// Package api holds the JSON bodies exchanged by the order, payment and
// inventory services.
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Money renders a decimal with exactly two fraction digits as a JSON number.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// Reservation failure codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeValidation        = "VALIDATION"
	CodeUnexpected        = "UNEXPECTED"
)

type OrderRequest struct {
	CustomerName  string `json:"customerName"`
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"paymentMethod"`
}

type OrderResponse struct {
	Success              bool        `json:"success"`
	Message              string      `json:"message"`
	OrderID              string      `json:"orderId,omitempty"`
	Status               string      `json:"status,omitempty"`
	TotalAmount          json.Number `json:"totalAmount,omitempty"`
	PaymentTransactionID string      `json:"paymentTransactionId,omitempty"`
}

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customerName"`
	ProductID    string      `json:"productId"`
	Quantity     int         `json:"quantity"`
	TotalAmount  json.Number `json:"totalAmount"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type PaymentRequest struct {
	OrderID       string          `json:"orderId"`
	ProductID     string          `json:"productId"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type PaymentResponse struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	PaymentID     string      `json:"paymentId,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
	Amount        json.Number `json:"amount,omitempty"`
	Status        string      `json:"status,omitempty"`
}

type ReservationRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ReservationResponse struct {
	Success            bool        `json:"success"`
	Message            string      `json:"message"`
	Code               string      `json:"code,omitempty"`
	ProductID          string      `json:"productId,omitempty"`
	ReservedQuantity   int         `json:"reservedQuantity,omitempty"`
	UnitPrice          json.Number `json:"unitPrice,omitempty"`
	TotalAmount        json.Number `json:"totalAmount,omitempty"`
	RemainingAvailable *int        `json:"remainingAvailable,omitempty"`
}

type Inventory struct {
	ProductID         string      `json:"productId"`
	ProductName       string      `json:"productName"`
	QuantityAvailable int         `json:"quantityAvailable"`
	ReservedQuantity  int         `json:"reservedQuantity"`
	UnitPrice         json.Number `json:"unitPrice"`
}

type Error struct {
	Error string `json:"error"`
}
