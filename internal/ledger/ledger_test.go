package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

type fakeLedgerRepo struct {
	account    accounts.Account
	openDebit  decimal.Decimal
	openCredit decimal.Decimal
	rows       []Row
}

func (f *fakeLedgerRepo) GetAccount(_ context.Context, _ int64, id int64) (accounts.Account, error) {
	if f.account.ID != id {
		return accounts.Account{}, accounts.ErrNotFound
	}
	return f.account, nil
}

func (f *fakeLedgerRepo) SumBefore(context.Context, int64, int64, time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return f.openDebit, f.openCredit, nil
}

func (f *fakeLedgerRepo) RowsBetween(context.Context, int64, int64, time.Time, time.Time) ([]Row, error) {
	return f.rows, nil
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(day int) time.Time {
	return time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
}

func TestStatementRunningBalanceDebitNormal(t *testing.T) {
	repo := &fakeLedgerRepo{
		account:    accounts.Account{ID: 10, Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset},
		openDebit:  amt("500.00"),
		openCredit: amt("100.00"),
		rows: []Row{
			{LineID: 1, EntryID: 1, Date: date(2), Debit: amt("150.00")},
			{LineID: 2, EntryID: 2, Date: date(5), Credit: amt("75.00")},
			{LineID: 3, EntryID: 3, Date: date(9), Debit: amt("25.00")},
		},
	}
	svc := NewService(repo)

	st, err := svc.Statement(context.Background(), testScope, 10, date(1), date(30))
	require.NoError(t, err)

	assert.True(t, st.OpeningBalance.Equal(amt("400.00")))
	require.Len(t, st.Rows, 3)
	assert.True(t, st.Rows[0].Balance.Equal(amt("550.00")))
	assert.True(t, st.Rows[1].Balance.Equal(amt("475.00")))
	assert.True(t, st.Rows[2].Balance.Equal(amt("500.00")))
	assert.True(t, st.ClosingBalance.Equal(amt("500.00")))
	assert.True(t, st.TotalDebit.Equal(amt("175.00")))
	assert.True(t, st.TotalCredit.Equal(amt("75.00")))

	// closing always reconciles against opening plus signed movement
	movement := st.TotalDebit.Sub(st.TotalCredit)
	assert.True(t, st.ClosingBalance.Equal(st.OpeningBalance.Add(movement)))
}

func TestStatementCreditNormalSigns(t *testing.T) {
	repo := &fakeLedgerRepo{
		account: accounts.Account{ID: 40, Code: "4000", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue},
		rows: []Row{
			{LineID: 1, EntryID: 1, Date: date(3), Credit: amt("900.00")},
			{LineID: 2, EntryID: 2, Date: date(4), Debit: amt("100.00")},
		},
	}
	svc := NewService(repo)

	st, err := svc.Statement(context.Background(), testScope, 40, date(1), date(30))
	require.NoError(t, err)

	assert.True(t, st.OpeningBalance.IsZero())
	assert.True(t, st.Rows[0].Balance.Equal(amt("900.00")))
	assert.True(t, st.Rows[1].Balance.Equal(amt("800.00")))
	assert.True(t, st.ClosingBalance.Equal(amt("800.00")))
}

func TestStatementOrdersRowsByDateThenCreationThenLine(t *testing.T) {
	at := func(day, hour int) time.Time {
		return time.Date(2026, 4, day, hour, 0, 0, 0, time.UTC)
	}
	repo := &fakeLedgerRepo{
		account: accounts.Account{ID: 10, Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset},
		rows: []Row{
			{LineID: 9, EntryID: 5, Date: date(8), CreatedAt: at(8, 9), Debit: amt("5.00")},
			{LineID: 2, EntryID: 3, Date: date(2), CreatedAt: at(2, 16), Credit: amt("30.00")},
			{LineID: 7, EntryID: 4, Date: date(2), CreatedAt: at(2, 16), Debit: amt("20.00")},
			{LineID: 1, EntryID: 2, Date: date(2), CreatedAt: at(2, 10), Debit: amt("100.00")},
		},
	}
	svc := NewService(repo)

	st, err := svc.Statement(context.Background(), testScope, 10, date(1), date(30))
	require.NoError(t, err)
	require.Len(t, st.Rows, 4)

	// date first, then created_at, then line id as the final tie-break
	assert.Equal(t, int64(1), st.Rows[0].LineID)
	assert.Equal(t, int64(2), st.Rows[1].LineID)
	assert.Equal(t, int64(7), st.Rows[2].LineID)
	assert.Equal(t, int64(9), st.Rows[3].LineID)

	assert.True(t, st.Rows[0].Balance.Equal(amt("100.00")))
	assert.True(t, st.Rows[1].Balance.Equal(amt("70.00")))
	assert.True(t, st.Rows[2].Balance.Equal(amt("90.00")))
	assert.True(t, st.Rows[3].Balance.Equal(amt("95.00")))
}

func TestStatementZeroAccountIsEmpty(t *testing.T) {
	svc := NewService(&fakeLedgerRepo{})

	st, err := svc.Statement(context.Background(), testScope, 0, date(1), date(30))
	require.NoError(t, err)
	assert.Zero(t, st.AccountID)
	assert.Empty(t, st.Rows)
	assert.True(t, st.OpeningBalance.IsZero())
	assert.True(t, st.ClosingBalance.IsZero())
}

func TestStatementUnknownAccountIsEmptyNotError(t *testing.T) {
	repo := &fakeLedgerRepo{account: accounts.Account{ID: 10, Type: accounts.AccountTypeAsset}}
	svc := NewService(repo)

	st, err := svc.Statement(context.Background(), testScope, 999, date(1), date(30))
	require.NoError(t, err)
	assert.Equal(t, int64(999), st.AccountID)
	assert.Empty(t, st.Rows)
}

func TestStatementRequiresTenant(t *testing.T) {
	svc := NewService(&fakeLedgerRepo{})

	_, err := svc.Statement(context.Background(), shared.Scope{}, 10, date(1), date(30))
	assert.ErrorIs(t, err, shared.ErrMissingTenant)
}

func TestLedgerQueriesExcludeDrafts(t *testing.T) {
	for name, query := range map[string]string{
		"sum_before":   sumBeforeQuery,
		"rows_between": rowsBetweenQuery,
	} {
		assert.Contains(t, query, "e.status='posted'", name)
	}
}

func TestRowsBetweenQueryOrdering(t *testing.T) {
	assert.Contains(t, rowsBetweenQuery, "ORDER BY e.date ASC, e.created_at ASC, i.id ASC")
}
