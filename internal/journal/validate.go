package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// balanceTolerance absorbs rounding from upstream float sources. Amounts
// are decimals internally, so in practice balanced entries match exactly.
var balanceTolerance = decimal.New(1, -2)

// LineInput describes a candidate posting line.
type LineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// EntryInput groups fields required to create or replace a journal entry.
type EntryInput struct {
	Date        time.Time
	Reference   string
	Description string
	Type        EntryType
	Status      EntryStatus
	Lines       []LineInput
}

// NormalizeLines drops lines that carry no amount on either side.
func (in EntryInput) NormalizeLines() []LineInput {
	out := make([]LineInput, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Debit.IsZero() && line.Credit.IsZero() {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Validate runs the posting line invariant checks. It is pure: account
// existence is verified separately against the registry inside the
// posting transaction.
func (in EntryInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("journal: entry date required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("journal: unknown entry type %q", in.Type)
	}
	if in.Status != StatusDraft && in.Status != StatusPosted {
		return fmt.Errorf("journal: unknown status %q", in.Status)
	}
	lines := in.NormalizeLines()
	if len(lines) < 2 {
		return ErrTooFewLines
	}
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for idx, line := range lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journal: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("journal: line %d negative amount", idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("journal: line %d cannot be both debit and credit", idx)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	if totalDebit.IsZero() {
		return ErrZeroEntry
	}
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(balanceTolerance) {
		return ErrUnbalanced
	}
	return nil
}
