package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus tracks the document lifecycle.
type SaleStatus string

const (
	StatusPending   SaleStatus = "pending"
	StatusCompleted SaleStatus = "completed"
	StatusRefunded  SaleStatus = "refunded"
	StatusCancelled SaleStatus = "cancelled"
)

// Valid reports whether s is a known sale status.
func (s SaleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks how much of the invoice has settled.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentUnpaid  PaymentStatus = "unpaid"
)

// Sale is a point-of-sale invoice. Paid never exceeds Total; the
// outstanding remainder is the customer's receivable.
type Sale struct {
	ID            int64
	TenantID      int64
	InvoiceNo     string
	CustomerName  string
	Date          time.Time
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Status        SaleStatus
	PaymentStatus PaymentStatus
	Method        string
	UserID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Outstanding returns the unpaid remainder of the invoice.
func (s Sale) Outstanding() decimal.Decimal {
	return s.Total.Sub(s.Paid)
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
	// ErrNotFound indicates a missing sale.
	ErrNotFound = errors.New("sales: not found")
	// ErrDuplicateInvoice indicates the invoice number is taken.
	ErrDuplicateInvoice = errors.New("sales: invoice number already exists")
	// ErrInvalidAmount indicates a non-positive total or negative paid amount.
	ErrInvalidAmount = errors.New("sales: invalid amount")
	// ErrOverpaid indicates paid would exceed total.
	ErrOverpaid = errors.New("sales: paid exceeds total")
)
