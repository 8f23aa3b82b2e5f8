package journal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType enumerates journal entry categories.
type EntryType string

const (
	EntryTypeGeneral        EntryType = "general"
	EntryTypeAdjustment     EntryType = "adjustment"
	EntryTypeOpeningBalance EntryType = "opening_balance"
	EntryTypeCashIn         EntryType = "cash_in"
	EntryTypeCashOut        EntryType = "cash_out"
	EntryTypeBankIn         EntryType = "bank_in"
	EntryTypeBankOut        EntryType = "bank_out"
	EntryTypeSale           EntryType = "sale"
	EntryTypePurchase       EntryType = "purchase"
	EntryTypePayment        EntryType = "payment"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeGeneral, EntryTypeAdjustment, EntryTypeOpeningBalance,
		EntryTypeCashIn, EntryTypeCashOut, EntryTypeBankIn, EntryTypeBankOut,
		EntryTypeSale, EntryTypePurchase, EntryTypePayment:
		return true
	}
	return false
}

// EntryStatus enumerates journal lifecycle values. The draft to posted
// transition is one-way; only posted entries have financial effect.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
)

// Entry captures a journal entry header with its posting lines.
type Entry struct {
	ID          int64
	TenantID    int64
	Date        time.Time
	Reference   string
	Description string
	Type        EntryType
	Status      EntryStatus
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// Line stores a debit or credit amount for an account. Exactly one of
// Debit/Credit carries a nonzero amount.
type Line struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	CreatedAt time.Time
}

// SourceLink ties a synthesized entry to its originating document.
type SourceLink struct {
	TenantID int64
	Module   string
	SourceID int64
	EntryID  int64
}

var (
	// ErrUnbalanced indicates debit != credit beyond tolerance.
	ErrUnbalanced = errors.New("journal: lines must balance")
	// ErrTooFewLines indicates less than two nonzero lines.
	ErrTooFewLines = errors.New("journal: entry requires at least two nonzero lines")
	// ErrZeroEntry indicates an all-zero entry.
	ErrZeroEntry = errors.New("journal: entry total must be nonzero")
	// ErrUnknownAccount indicates a line references a nonexistent account.
	ErrUnknownAccount = errors.New("journal: line references unknown account")
	// ErrInactiveAccount indicates a line references an inactive account.
	ErrInactiveAccount = errors.New("journal: line references inactive account")
	// ErrNotFound indicates a missing entry.
	ErrNotFound = errors.New("journal: entry not found")
	// ErrAlreadyPosted indicates a posted entry cannot transition again.
	ErrAlreadyPosted = errors.New("journal: entry already posted")
	// ErrPostedImmutable indicates posted entries cannot be deleted directly.
	ErrPostedImmutable = errors.New("journal: posted entries cannot be deleted")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("journal: source already linked")
)

// Totals sums the entry's lines.
func (e Entry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}
