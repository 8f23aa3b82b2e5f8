package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/purchases"
	"github.com/sentra-pos/sentra-pos/internal/sales"
	"github.com/sentra-pos/sentra-pos/internal/shared"
	"github.com/sentra-pos/sentra-pos/internal/transactions"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

const (
	cashAccountID       = int64(100)
	bankAccountID       = int64(101)
	receivableAccountID = int64(110)
	payableAccountID    = int64(120)
	revenueAccountID    = int64(130)
	expenseAccountID    = int64(140)
)

type fakeJournal struct {
	entries map[string]journal.EntryInput
	records int
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{entries: map[string]journal.EntryInput{}}
}

func sourceKey(scope shared.Scope, module string, sourceID int64) string {
	return fmt.Sprintf("%d/%s/%d", scope.TenantID, module, sourceID)
}

func (f *fakeJournal) RecordSourced(_ context.Context, scope shared.Scope, module string, sourceID int64, input journal.EntryInput) (journal.Entry, error) {
	f.records++
	f.entries[sourceKey(scope, module, sourceID)] = input
	return journal.Entry{ID: int64(f.records)}, nil
}

func (f *fakeJournal) RemoveSourced(_ context.Context, scope shared.Scope, module string, sourceID int64) error {
	delete(f.entries, sourceKey(scope, module, sourceID))
	return nil
}

type fakeCashbook struct {
	rows map[string]transactions.Transaction
}

func newFakeCashbook() *fakeCashbook {
	return &fakeCashbook{rows: map[string]transactions.Transaction{}}
}

func rowKey(tenantID int64, sourceType string, sourceID int64) string {
	return fmt.Sprintf("%d/%s/%d", tenantID, sourceType, sourceID)
}

func (f *fakeCashbook) UpsertBySource(_ context.Context, txn transactions.Transaction) (int64, error) {
	f.rows[rowKey(txn.TenantID, txn.SourceType, txn.SourceID)] = txn
	return int64(len(f.rows)), nil
}

func (f *fakeCashbook) DeleteBySource(_ context.Context, tenantID int64, sourceType string, sourceID int64) error {
	delete(f.rows, rowKey(tenantID, sourceType, sourceID))
	return nil
}

type staticResolver struct{}

func (staticResolver) ResolveSystemAccount(_ context.Context, _ shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error) {
	ids := map[accounts.SystemAccountKey]int64{
		accounts.SystemAccountCash:            cashAccountID,
		accounts.SystemAccountBank:            bankAccountID,
		accounts.SystemAccountReceivable:      receivableAccountID,
		accounts.SystemAccountPayable:         payableAccountID,
		accounts.SystemAccountSalesRevenue:    revenueAccountID,
		accounts.SystemAccountPurchaseExpense: expenseAccountID,
	}
	id, ok := ids[key]
	if !ok {
		return accounts.Account{}, fmt.Errorf("%w: %s", accounts.ErrSystemAccountNotConfigured, key)
	}
	return accounts.Account{ID: id, TenantID: 1}, nil
}

type failingResolver struct{}

func (failingResolver) ResolveSystemAccount(_ context.Context, _ shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error) {
	return accounts.Account{}, fmt.Errorf("%w: %s", accounts.ErrSystemAccountNotConfigured, key)
}

func newTestHooks() (*Hooks, *fakeJournal, *fakeCashbook) {
	jrnl := newFakeJournal()
	cashbook := newFakeCashbook()
	return NewHooks(jrnl, cashbook, staticResolver{}), jrnl, cashbook
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSale() sales.Sale {
	return sales.Sale{
		ID:            11,
		TenantID:      1,
		InvoiceNo:     "INV-001",
		Date:          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Total:         amount("250"),
		Paid:          amount("250"),
		Status:        sales.StatusCompleted,
		PaymentStatus: sales.PaymentPaid,
		Method:        "cash",
	}
}

func lineTotal(lines []journal.LineInput, debit bool) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		if debit {
			sum = sum.Add(line.Debit)
		} else {
			sum = sum.Add(line.Credit)
		}
	}
	return sum
}

func findLine(t *testing.T, lines []journal.LineInput, accountID int64) journal.LineInput {
	t.Helper()
	for _, line := range lines {
		if line.AccountID == accountID {
			return line
		}
	}
	t.Fatalf("no line for account %d", accountID)
	return journal.LineInput{}
}

func TestSaleSavedPostsCashAndRevenue(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()

	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	row, ok := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	require.True(t, ok)
	assert.Equal(t, transactions.StatusCompleted, row.Status)
	assert.Equal(t, transactions.TypeIncome, row.Type)
	assert.True(t, row.Amount.Equal(sale.Total))

	entry, ok := jrnl.entries[sourceKey(testScope, SourceSales, sale.ID)]
	require.True(t, ok)
	assert.Equal(t, journal.EntryTypeSale, entry.Type)
	assert.True(t, findLine(t, entry.Lines, cashAccountID).Debit.Equal(sale.Paid))
	assert.True(t, findLine(t, entry.Lines, revenueAccountID).Credit.Equal(sale.Total))
	assert.True(t, lineTotal(entry.Lines, true).Equal(lineTotal(entry.Lines, false)))
}

func TestSaleSavedPartialDebitsReceivable(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	sale.Paid = amount("100")
	sale.PaymentStatus = sales.PaymentPartial

	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	row := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	assert.Equal(t, transactions.StatusCompleted, row.Status)

	entry := jrnl.entries[sourceKey(testScope, SourceSales, sale.ID)]
	assert.True(t, findLine(t, entry.Lines, cashAccountID).Debit.Equal(amount("100")))
	assert.True(t, findLine(t, entry.Lines, receivableAccountID).Debit.Equal(amount("150")))
	assert.True(t, lineTotal(entry.Lines, true).Equal(lineTotal(entry.Lines, false)))
}

func TestSaleSavedUnpaidMarksRowPending(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	sale.Paid = decimal.Zero
	sale.PaymentStatus = sales.PaymentUnpaid

	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	row := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	assert.Equal(t, transactions.StatusPending, row.Status)

	entry := jrnl.entries[sourceKey(testScope, SourceSales, sale.ID)]
	assert.True(t, findLine(t, entry.Lines, receivableAccountID).Debit.Equal(sale.Total))
}

func TestRefundedSaleRetractsEntryKeepsRow(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	sale.Status = sales.StatusRefunded
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	row, ok := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	require.True(t, ok)
	assert.Equal(t, transactions.StatusCancelled, row.Status)
	_, posted := jrnl.entries[sourceKey(testScope, SourceSales, sale.ID)]
	assert.False(t, posted)
}

func TestPendingSaleCarriesNoBookkeeping(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	sale.Status = sales.StatusPending
	sale.Paid = decimal.Zero
	sale.PaymentStatus = sales.PaymentUnpaid

	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))
	assert.Empty(t, jrnl.entries)
	assert.Empty(t, cashbook.rows)

	// completing the cart is when bookkeeping appears
	sale.Status = sales.StatusCompleted
	sale.Paid = sale.Total
	sale.PaymentStatus = sales.PaymentPaid
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	assert.Len(t, jrnl.entries, 1)
	row, ok := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	require.True(t, ok)
	assert.Equal(t, transactions.StatusCompleted, row.Status)
}

func TestCancelledSaleRetractsEntryKeepsRow(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	sale.Status = sales.StatusCancelled
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	row, ok := cashbook.rows[rowKey(1, SourceSales, sale.ID)]
	require.True(t, ok)
	assert.Equal(t, transactions.StatusCancelled, row.Status)
	assert.Empty(t, jrnl.entries)
}

func TestSaleRedispatchConverges(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()

	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	assert.Len(t, cashbook.rows, 1)
	assert.Len(t, jrnl.entries, 1)
}

func TestSaleDeletedRetractsAll(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	sale := sampleSale()
	require.NoError(t, hooks.SaleSaved(context.Background(), testScope, sale))

	require.NoError(t, hooks.SaleDeleted(context.Background(), testScope, sale.ID))

	assert.Empty(t, cashbook.rows)
	assert.Empty(t, jrnl.entries)
}

func samplePurchase() purchases.Purchase {
	return purchases.Purchase{
		ID:            21,
		TenantID:      1,
		RefNo:         "PO-008",
		Date:          time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Total:         amount("400"),
		Paid:          amount("150"),
		Status:        purchases.StatusReceived,
		PaymentStatus: purchases.PaymentPartial,
		Method:        "bank",
	}
}

func TestPurchaseReceivedPostsExpense(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	purchase := samplePurchase()

	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	row := cashbook.rows[rowKey(1, SourcePurchases, purchase.ID)]
	assert.Equal(t, transactions.TypeExpense, row.Type)
	assert.Equal(t, transactions.StatusCompleted, row.Status)
	assert.Equal(t, transactions.MethodBank, row.Method)

	entry := jrnl.entries[sourceKey(testScope, SourcePurchases, purchase.ID)]
	assert.Equal(t, journal.EntryTypePurchase, entry.Type)
	assert.True(t, findLine(t, entry.Lines, expenseAccountID).Debit.Equal(purchase.Total))
	assert.True(t, findLine(t, entry.Lines, bankAccountID).Credit.Equal(purchase.Paid))
	assert.True(t, findLine(t, entry.Lines, payableAccountID).Credit.Equal(amount("250")))
	assert.True(t, lineTotal(entry.Lines, true).Equal(lineTotal(entry.Lines, false)))
}

func TestPurchaseOrderedCarriesNoBookkeeping(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	purchase := samplePurchase()
	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	purchase.Status = purchases.StatusOrdered
	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	assert.Empty(t, jrnl.entries)
	assert.Empty(t, cashbook.rows)
}

func TestCancelledPurchaseKeepsCancelledRow(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	purchase := samplePurchase()
	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	purchase.Status = purchases.StatusCancelled
	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	row, ok := cashbook.rows[rowKey(1, SourcePurchases, purchase.ID)]
	require.True(t, ok)
	assert.Equal(t, transactions.StatusCancelled, row.Status)
	assert.Empty(t, jrnl.entries)
}

func TestPurchaseDeletedRetractsAll(t *testing.T) {
	hooks, jrnl, cashbook := newTestHooks()
	purchase := samplePurchase()
	require.NoError(t, hooks.PurchaseSaved(context.Background(), testScope, purchase))

	require.NoError(t, hooks.PurchaseDeleted(context.Background(), testScope, purchase.ID))

	assert.Empty(t, cashbook.rows)
	assert.Empty(t, jrnl.entries)
}

func TestMissingSystemAccountFails(t *testing.T) {
	hooks := NewHooks(newFakeJournal(), newFakeCashbook(), failingResolver{})

	err := hooks.SaleSaved(context.Background(), testScope, sampleSale())
	assert.ErrorIs(t, err, accounts.ErrSystemAccountNotConfigured)
}
