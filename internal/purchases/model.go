package purchases

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus tracks the document lifecycle. Only received
// purchases have financial effect.
type PurchaseStatus string

const (
	StatusOrdered   PurchaseStatus = "ordered"
	StatusReceived  PurchaseStatus = "received"
	StatusCancelled PurchaseStatus = "cancelled"
)

// Valid reports whether s is a known purchase status.
func (s PurchaseStatus) Valid() bool {
	return s == StatusOrdered || s == StatusReceived || s == StatusCancelled
}

// PaymentStatus tracks how much of the bill has settled.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentUnpaid  PaymentStatus = "unpaid"
)

// Purchase is a supplier bill. Paid never exceeds Total; the unpaid
// remainder is the supplier's payable.
type Purchase struct {
	ID            int64
	TenantID      int64
	RefNo         string
	SupplierName  string
	Date          time.Time
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Status        PurchaseStatus
	PaymentStatus PaymentStatus
	Method        string
	UserID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Outstanding returns the unpaid remainder of the bill.
func (p Purchase) Outstanding() decimal.Decimal {
	return p.Total.Sub(p.Paid)
}

// DerivePaymentStatus recomputes the payment status from amounts.
func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

var (
	// ErrNotFound indicates a missing purchase.
	ErrNotFound = errors.New("purchases: not found")
	// ErrDuplicateRef indicates the reference number is taken.
	ErrDuplicateRef = errors.New("purchases: reference number already exists")
	// ErrInvalidAmount indicates a non-positive total or negative paid amount.
	ErrInvalidAmount = errors.New("purchases: invalid amount")
	// ErrOverpaid indicates paid would exceed total.
	ErrOverpaid = errors.New("purchases: paid exceeds total")
)
