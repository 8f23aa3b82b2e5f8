package transactions

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TxnType labels cash book direction.
type TxnType string

const (
	TypeIncome  TxnType = "income"
	TypeExpense TxnType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TxnType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// TxnStatus tracks settlement of a cash book row.
type TxnStatus string

const (
	StatusPending   TxnStatus = "pending"
	StatusCompleted TxnStatus = "completed"
	StatusCancelled TxnStatus = "cancelled"
)

// PaymentMethod names where the money moved.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodBank PaymentMethod = "bank"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodBank
}

// Transaction is one cash book row. Rows synthesized from source
// documents carry SourceType/SourceID; at most one row exists per
// source document and tenant.
type Transaction struct {
	ID            int64
	TenantID      int64
	Date          time.Time
	Type          TxnType
	Status        TxnStatus
	Method        PaymentMethod
	Amount        decimal.Decimal
	Description   string
	CategoryID    int64
	SourceType    string
	SourceID      int64
	UserID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	// ErrNotFound indicates a missing transaction.
	ErrNotFound = errors.New("transactions: not found")
	// ErrDuplicateSource indicates the source document already has a row.
	ErrDuplicateSource = errors.New("transactions: source already recorded")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("transactions: amount must be positive")
	// ErrSourceImmutable indicates synthesized rows reject manual edits.
	ErrSourceImmutable = errors.New("transactions: sourced rows are managed by their document")
)
