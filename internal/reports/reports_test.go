package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func window() (time.Time, time.Time) {
	return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
}

func sampleBalances() []AccountBalance {
	return []AccountBalance{
		{AccountID: 1, Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: amt("1500.00"), Credit: amt("300.00")},
		{AccountID: 2, Code: "1200", Name: "Accounts Receivable", Type: accounts.AccountTypeAsset, Debit: amt("400.00"), Credit: amt("100.00")},
		{AccountID: 3, Code: "2000", Name: "Accounts Payable", Type: accounts.AccountTypeLiability, Debit: amt("50.00"), Credit: amt("250.00")},
		{AccountID: 4, Code: "3000", Name: "Owner Capital", Type: accounts.AccountTypeEquity, Debit: decimal.Zero, Credit: amt("1000.00")},
		{AccountID: 5, Code: "4000", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue, Debit: decimal.Zero, Credit: amt("700.00")},
		{AccountID: 6, Code: "5000", Name: "Rent Expense", Type: accounts.AccountTypeExpense, Debit: amt("400.00"), Credit: decimal.Zero},
	}
}

func TestTrialBalanceBalancesForBalancedLedger(t *testing.T) {
	from, to := window()
	tb := BuildTrialBalance(from, to, sampleBalances())

	// total debits and credits across the sample ledger are equal,
	// so the netted trial balance must balance too
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
	assert.Len(t, tb.Rows, 6)

	// rows come back in chart-of-accounts code order
	assert.Equal(t, "1000", tb.Rows[0].Code)
	assert.Equal(t, "5000", tb.Rows[5].Code)

	// net shown on the heavier side only
	assert.True(t, tb.Rows[0].Debit.Equal(amt("1200.00")))
	assert.True(t, tb.Rows[0].Credit.IsZero())
	assert.True(t, tb.Rows[2].Credit.Equal(amt("200.00")))
}

func TestTrialBalanceOmitsIdleAccounts(t *testing.T) {
	from, to := window()
	balances := append(sampleBalances(), AccountBalance{AccountID: 9, Code: "9000", Name: "Idle", Type: accounts.AccountTypeAsset})
	tb := BuildTrialBalance(from, to, balances)
	assert.Len(t, tb.Rows, 6)
}

func TestProfitLossNetIncome(t *testing.T) {
	from, to := window()
	pl := BuildProfitLoss(from, to, sampleBalances())

	assert.True(t, pl.TotalRevenue.Equal(amt("700.00")))
	assert.True(t, pl.TotalExpense.Equal(amt("400.00")))
	assert.True(t, pl.NetIncome.Equal(amt("300.00")))
	require.Len(t, pl.Revenue, 1)
	require.Len(t, pl.Expenses, 1)
	assert.Equal(t, "Sales Revenue", pl.Revenue[0].Label)
}

func TestBalanceSheetEquationHolds(t *testing.T) {
	asOf := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	bs := BuildBalanceSheet(asOf, sampleBalances())

	assert.True(t, bs.TotalAssets.Equal(amt("1500.00")))
	assert.True(t, bs.TotalLiabilities.Equal(amt("200.00")))
	// equity includes the retained earnings plug: 1000 + (700-400)
	assert.True(t, bs.RetainedEarnings.Equal(amt("300.00")))
	assert.True(t, bs.TotalEquity.Equal(amt("1300.00")))
	assert.True(t, bs.Balanced)
	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity)))
}

func TestCashFlowReconciles(t *testing.T) {
	from, to := window()
	movements := []CashMovement{
		{EntryType: journal.EntryTypeSale, Debit: amt("900.00")},
		{EntryType: journal.EntryTypePurchase, Credit: amt("350.00")},
		{EntryType: journal.EntryTypeCashOut, Credit: amt("50.00")},
	}
	cf := BuildCashFlow(from, to, amt("100.00"), movements)

	require.Len(t, cf.Operating.Rows, 3)
	assert.True(t, cf.Operating.Total.Equal(amt("500.00")))
	assert.True(t, cf.NetCashFlow.Equal(amt("500.00")))
	assert.True(t, cf.ClosingBalance.Equal(amt("600.00")))
	assert.True(t, cf.ClosingBalance.Equal(cf.OpeningBalance.Add(cf.NetCashFlow)))

	// investing and financing are structurally present but empty
	assert.NotNil(t, cf.Investing.Rows)
	assert.Empty(t, cf.Investing.Rows)
	assert.True(t, cf.Investing.Total.IsZero())
	assert.NotNil(t, cf.Financing.Rows)
	assert.Empty(t, cf.Financing.Rows)
	assert.True(t, cf.Financing.Total.IsZero())
}

func TestCashFlowDropsZeroNetMovements(t *testing.T) {
	from, to := window()
	movements := []CashMovement{
		{EntryType: journal.EntryTypeSale, Debit: amt("250.00")},
		{EntryType: journal.EntryTypeGeneral, Debit: amt("40.00"), Credit: amt("40.00")},
	}
	cf := BuildCashFlow(from, to, amt("0"), movements)

	require.Len(t, cf.Operating.Rows, 1)
	assert.Equal(t, "Sales receipts", cf.Operating.Rows[0].Label)
	assert.True(t, cf.NetCashFlow.Equal(amt("250.00")))
}

func TestReportQueriesExcludeDrafts(t *testing.T) {
	for name, query := range map[string]string{
		"balances_between": balancesBetweenQuery,
		"balances_through": balancesThroughQuery,
		"cash_opening":     cashOpeningQuery,
		"cash_movements":   cashMovementsQuery,
	} {
		assert.Contains(t, query, "e.status='posted'", name)
	}
}

type fakeReportsRepo struct {
	balances []AccountBalance
	calls    int
}

func (f *fakeReportsRepo) BalancesBetween(context.Context, int64, time.Time, time.Time) ([]AccountBalance, error) {
	f.calls++
	return f.balances, nil
}

func (f *fakeReportsRepo) BalancesThrough(context.Context, int64, time.Time) ([]AccountBalance, error) {
	f.calls++
	return f.balances, nil
}

func (f *fakeReportsRepo) CashOpening(context.Context, int64, []int64, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeReportsRepo) CashMovements(context.Context, int64, []int64, time.Time, time.Time) ([]CashMovement, error) {
	return nil, nil
}

type fakeResolver struct{}

func (fakeResolver) ResolveSystemAccount(_ context.Context, _ shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error) {
	switch key {
	case accounts.SystemAccountCash:
		return accounts.Account{ID: 1}, nil
	case accounts.SystemAccountBank:
		return accounts.Account{ID: 2}, nil
	}
	return accounts.Account{}, accounts.ErrSystemAccountNotConfigured
}

func TestTrialBalanceCachedUntilBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	repo := &fakeReportsRepo{balances: sampleBalances()}
	svc := NewService(repo, fakeResolver{}, cache)

	from, to := window()
	first, err := svc.TrialBalance(context.Background(), testScope, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// warm cache: second read skips the repository
	second, err := svc.TrialBalance(context.Background(), testScope, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.True(t, second.TotalDebit.Equal(first.TotalDebit))

	// a posting bumps the tenant version and forces a rebuild
	require.NoError(t, cache.Bump(context.Background(), testScope.TenantID))
	_, err = svc.TrialBalance(context.Background(), testScope, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestCashFlowRequiresConfiguredCashAccounts(t *testing.T) {
	repo := &fakeReportsRepo{}
	svc := NewService(repo, failingResolver{}, NewCache(nil, 0))

	from, to := window()
	_, err := svc.CashFlow(context.Background(), testScope, from, to)
	assert.ErrorIs(t, err, accounts.ErrSystemAccountNotConfigured)
}

type failingResolver struct{}

func (failingResolver) ResolveSystemAccount(context.Context, shared.Scope, accounts.SystemAccountKey) (accounts.Account, error) {
	return accounts.Account{}, accounts.ErrSystemAccountNotConfigured
}

func TestFormatAmountGroupsThousands(t *testing.T) {
	assert.Equal(t, "1,234,567.80", FormatAmount(amt("1234567.8")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
}
