package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
)

// AccountBalance aggregates posted debits and credits for one account.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// CashMovement groups cash account activity by the originating entry type.
type CashMovement struct {
	EntryType journal.EntryType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow shows an account's net balance on its heavier side.
type TrialBalanceRow struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// TrialBalance lists every active account's net position over a window.
type TrialBalance struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// ReportLine is a labelled amount inside a statement section.
type ReportLine struct {
	AccountID int64           `json:"account_id,omitempty"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
}

// ProfitLoss summarises revenue against expense over a window.
type ProfitLoss struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Revenue      []ReportLine    `json:"revenue"`
	Expenses     []ReportLine    `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetIncome    decimal.Decimal `json:"net_income"`
}

// BalanceSheet states financial position as of a date. Retained
// earnings is the cumulative net income plug, since revenue and expense
// accounts are never closed out.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	Balanced         bool            `json:"balanced"`
}

// CashFlowSection groups cash movements under one statement activity.
type CashFlowSection struct {
	Rows  []ReportLine    `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// CashFlow summarises movement through the cash and bank accounts,
// split into operating, investing and financing activities. Every
// entry type maps to operating today; the investing and financing
// sections are carried empty so the statement shape stays stable.
type CashFlow struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Operating      CashFlowSection `json:"operating"`
	Investing      CashFlowSection `json:"investing"`
	Financing      CashFlowSection `json:"financing"`
	NetCashFlow    decimal.Decimal `json:"net_cash_flow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}
