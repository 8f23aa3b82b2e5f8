package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
)

// Row is one posted line projected onto an account's ledger.
type Row struct {
	LineID      int64
	EntryID     int64
	Date        time.Time
	CreatedAt   time.Time
	Reference   string
	Description string
	Type        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

// Statement is an account ledger over a date window. Balances carry the
// account's normal-balance sign: debits increase debit-normal accounts
// and decrease credit-normal ones.
type Statement struct {
	AccountID      int64
	AccountCode    string
	AccountName    string
	AccountType    accounts.AccountType
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	Rows           []Row
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
}

// signedDelta converts a debit/credit pair into a balance movement for
// the given account type.
func signedDelta(accType accounts.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if accType.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// sortRows orders ledger rows by entry date, entry creation time, then
// line id. Entries sharing a date fall back to creation time, so two
// entries booked the same day keep their insertion order.
func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].LineID < rows[j].LineID
	})
}

// buildStatement folds the opening totals and in-window rows into a
// statement with running balances. Rows are re-sorted here even though
// the repository already orders them, so the running balance never
// depends on the caller.
func buildStatement(account accounts.Account, from, to time.Time, openDebit, openCredit decimal.Decimal, rows []Row) Statement {
	sortRows(rows)
	st := Statement{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		AccountType:    account.Type,
		From:           from,
		To:             to,
		OpeningBalance: signedDelta(account.Type, openDebit, openCredit),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}
	balance := st.OpeningBalance
	st.Rows = make([]Row, 0, len(rows))
	for _, row := range rows {
		balance = balance.Add(signedDelta(account.Type, row.Debit, row.Credit))
		row.Balance = balance
		st.TotalDebit = st.TotalDebit.Add(row.Debit)
		st.TotalCredit = st.TotalCredit.Add(row.Credit)
		st.Rows = append(st.Rows, row)
	}
	st.ClosingBalance = balance
	return st
}
