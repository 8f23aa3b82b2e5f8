package payments

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/transactions"
)

// Input describes a payment against an open document.
type Input struct {
	DocumentID     int64
	Amount         decimal.Decimal
	Date           time.Time
	Method         transactions.PaymentMethod
	Note           string
	IdempotencyKey string
}

// Document is a locked snapshot of the sale or purchase being settled.
type Document struct {
	ID    int64
	Ref   string
	Total decimal.Decimal
	Paid  decimal.Decimal
}

// Remaining returns the open balance of the document.
func (d Document) Remaining() decimal.Decimal {
	return d.Total.Sub(d.Paid)
}

// Receipt summarizes a recorded payment.
type Receipt struct {
	DocumentID    int64
	Ref           string
	Amount        decimal.Decimal
	Remaining     decimal.Decimal
	PaymentStatus string
	EntryID       int64
}

var (
	// ErrNotFound indicates a missing document.
	ErrNotFound = errors.New("payments: document not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("payments: amount must be positive")
	// ErrPaymentExceedsBalance indicates the payment would overpay the document.
	ErrPaymentExceedsBalance = errors.New("payments: amount exceeds remaining balance")
)
