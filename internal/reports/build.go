package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
)

var reportTolerance = decimal.New(1, -2)

func sortBalances(balances []AccountBalance) {
	sort.Slice(balances, func(i, j int) bool { return balances[i].Code < balances[j].Code })
}

// BuildTrialBalance nets each account's posted activity and shows it on
// the heavier side. Accounts without activity are omitted.
func BuildTrialBalance(from, to time.Time, balances []AccountBalance) TrialBalance {
	sortBalances(balances)
	tb := TrialBalance{
		From:        from,
		To:          to,
		Rows:        make([]TrialBalanceRow, 0, len(balances)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, bal := range balances {
		if bal.Debit.IsZero() && bal.Credit.IsZero() {
			continue
		}
		row := TrialBalanceRow{
			AccountID: bal.AccountID,
			Code:      bal.Code,
			Name:      bal.Name,
			Type:      string(bal.Type),
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		net := bal.Debit.Sub(bal.Credit)
		if net.IsNegative() {
			row.Credit = net.Neg()
		} else {
			row.Debit = net
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	tb.Balanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThanOrEqual(reportTolerance)
	return tb
}

// BuildProfitLoss nets revenue and expense activity over the window.
func BuildProfitLoss(from, to time.Time, balances []AccountBalance) ProfitLoss {
	sortBalances(balances)
	pl := ProfitLoss{
		From:         from,
		To:           to,
		Revenue:      []ReportLine{},
		Expenses:     []ReportLine{},
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, bal := range balances {
		switch bal.Type {
		case accounts.AccountTypeRevenue:
			amount := bal.Credit.Sub(bal.Debit)
			if amount.IsZero() {
				continue
			}
			pl.Revenue = append(pl.Revenue, ReportLine{AccountID: bal.AccountID, Label: bal.Name, Amount: amount})
			pl.TotalRevenue = pl.TotalRevenue.Add(amount)
		case accounts.AccountTypeExpense:
			amount := bal.Debit.Sub(bal.Credit)
			if amount.IsZero() {
				continue
			}
			pl.Expenses = append(pl.Expenses, ReportLine{AccountID: bal.AccountID, Label: bal.Name, Amount: amount})
			pl.TotalExpense = pl.TotalExpense.Add(amount)
		}
	}
	pl.NetIncome = pl.TotalRevenue.Sub(pl.TotalExpense)
	return pl
}

// BuildBalanceSheet derives financial position from cumulative posted
// balances through the as-of date. Revenue less expense becomes the
// retained earnings plug inside equity.
func BuildBalanceSheet(asOf time.Time, balances []AccountBalance) BalanceSheet {
	sortBalances(balances)
	bs := BalanceSheet{
		AsOf:             asOf,
		Assets:           []ReportLine{},
		Liabilities:      []ReportLine{},
		Equity:           []ReportLine{},
		RetainedEarnings: decimal.Zero,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	for _, bal := range balances {
		switch bal.Type {
		case accounts.AccountTypeAsset:
			amount := bal.Debit.Sub(bal.Credit)
			if amount.IsZero() {
				continue
			}
			bs.Assets = append(bs.Assets, ReportLine{AccountID: bal.AccountID, Label: bal.Name, Amount: amount})
			bs.TotalAssets = bs.TotalAssets.Add(amount)
		case accounts.AccountTypeLiability:
			amount := bal.Credit.Sub(bal.Debit)
			if amount.IsZero() {
				continue
			}
			bs.Liabilities = append(bs.Liabilities, ReportLine{AccountID: bal.AccountID, Label: bal.Name, Amount: amount})
			bs.TotalLiabilities = bs.TotalLiabilities.Add(amount)
		case accounts.AccountTypeEquity:
			amount := bal.Credit.Sub(bal.Debit)
			if amount.IsZero() {
				continue
			}
			bs.Equity = append(bs.Equity, ReportLine{AccountID: bal.AccountID, Label: bal.Name, Amount: amount})
			bs.TotalEquity = bs.TotalEquity.Add(amount)
		case accounts.AccountTypeRevenue:
			bs.RetainedEarnings = bs.RetainedEarnings.Add(bal.Credit.Sub(bal.Debit))
		case accounts.AccountTypeExpense:
			bs.RetainedEarnings = bs.RetainedEarnings.Sub(bal.Debit.Sub(bal.Credit))
		}
	}
	bs.TotalEquity = bs.TotalEquity.Add(bs.RetainedEarnings)
	bs.Balanced = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity)).Abs().LessThanOrEqual(reportTolerance)
	return bs
}

// cashFlowLabels maps entry types to statement wording.
var cashFlowLabels = map[journal.EntryType]string{
	journal.EntryTypeSale:           "Sales receipts",
	journal.EntryTypePayment:        "Invoice payments",
	journal.EntryTypePurchase:       "Purchases",
	journal.EntryTypeCashIn:         "Other cash in",
	journal.EntryTypeCashOut:        "Other cash out",
	journal.EntryTypeBankIn:         "Bank deposits",
	journal.EntryTypeBankOut:        "Bank withdrawals",
	journal.EntryTypeGeneral:        "General journal",
	journal.EntryTypeAdjustment:     "Adjustments",
	journal.EntryTypeOpeningBalance: "Opening balances",
}

// BuildCashFlow folds cash account movements, grouped by entry type,
// into activity sections. All journal entry types are operating
// activity; investing and financing ship empty until asset and loan
// accounts exist to feed them.
func BuildCashFlow(from, to time.Time, opening decimal.Decimal, movements []CashMovement) CashFlow {
	sort.Slice(movements, func(i, j int) bool { return movements[i].EntryType < movements[j].EntryType })
	cf := CashFlow{
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Operating:      CashFlowSection{Rows: []ReportLine{}, Total: decimal.Zero},
		Investing:      CashFlowSection{Rows: []ReportLine{}, Total: decimal.Zero},
		Financing:      CashFlowSection{Rows: []ReportLine{}, Total: decimal.Zero},
	}
	for _, m := range movements {
		net := m.Debit.Sub(m.Credit)
		if net.IsZero() {
			continue
		}
		label, ok := cashFlowLabels[m.EntryType]
		if !ok {
			label = string(m.EntryType)
		}
		cf.Operating.Rows = append(cf.Operating.Rows, ReportLine{Label: label, Amount: net})
		cf.Operating.Total = cf.Operating.Total.Add(net)
	}
	cf.NetCashFlow = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)
	cf.ClosingBalance = cf.OpeningBalance.Add(cf.NetCashFlow)
	return cf
}
