// Package integration translates document events from the selling and
// purchasing modules into bookkeeping records: one cash book row and
// one posted journal entry per source document. Handlers converge on
// the latest document state, so re-delivered events are harmless.
package integration

import (
	"context"
	"fmt"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/purchases"
	"github.com/sentra-pos/sentra-pos/internal/sales"
	"github.com/sentra-pos/sentra-pos/internal/shared"
	"github.com/sentra-pos/sentra-pos/internal/transactions"
)

const (
	// SourceSales links sale documents in the journal and cash book.
	SourceSales = "sales"
	// SourcePurchases links purchase documents.
	SourcePurchases = "purchases"
)

// JournalPort posts and retracts entries synthesized from documents.
type JournalPort interface {
	RecordSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64, input journal.EntryInput) (journal.Entry, error)
	RemoveSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64) error
}

// CashBookPort maintains the synthesized cash book rows.
type CashBookPort interface {
	UpsertBySource(ctx context.Context, txn transactions.Transaction) (int64, error)
	DeleteBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) error
}

// SystemAccountResolver resolves configured control accounts.
type SystemAccountResolver interface {
	ResolveSystemAccount(ctx context.Context, scope shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error)
}

// Hooks is the bookkeeping event handler for source documents.
type Hooks struct {
	journal  JournalPort
	cashbook CashBookPort
	system   SystemAccountResolver
}

// NewHooks constructs the integration hooks.
func NewHooks(journalPort JournalPort, cashbook CashBookPort, system SystemAccountResolver) *Hooks {
	return &Hooks{journal: journalPort, cashbook: cashbook, system: system}
}

func method(raw string) transactions.PaymentMethod {
	if raw == string(transactions.MethodBank) {
		return transactions.MethodBank
	}
	return transactions.MethodCash
}

// SaleSaved synthesizes bookkeeping for a created or updated sale.
// Only completed sales have financial effect: pending carts retract
// any previous postings, refunded and cancelled sales additionally
// keep a cancelled cash book row for the audit trail.
func (h *Hooks) SaleSaved(ctx context.Context, scope shared.Scope, sale sales.Sale) error {
	if sale.Status != sales.StatusCompleted {
		if err := h.journal.RemoveSourced(ctx, scope, SourceSales, sale.ID); err != nil {
			return err
		}
		if sale.Status == sales.StatusPending {
			return h.cashbook.DeleteBySource(ctx, scope.TenantID, SourceSales, sale.ID)
		}
		_, err := h.cashbook.UpsertBySource(ctx, h.saleTxn(scope, sale, transactions.StatusCancelled))
		return err
	}
	status := transactions.StatusCompleted
	if sale.PaymentStatus == sales.PaymentUnpaid {
		status = transactions.StatusPending
	}
	if _, err := h.cashbook.UpsertBySource(ctx, h.saleTxn(scope, sale, status)); err != nil {
		return err
	}
	revenue, err := h.system.ResolveSystemAccount(ctx, scope, accounts.SystemAccountSalesRevenue)
	if err != nil {
		return err
	}
	money, err := h.moneyAccount(ctx, scope, method(sale.Method))
	if err != nil {
		return err
	}
	lines := []journal.LineInput{
		{AccountID: money.ID, Debit: sale.Paid},
	}
	if outstanding := sale.Outstanding(); outstanding.IsPositive() {
		receivable, err := h.system.ResolveSystemAccount(ctx, scope, accounts.SystemAccountReceivable)
		if err != nil {
			return err
		}
		lines = append(lines, journal.LineInput{AccountID: receivable.ID, Debit: outstanding})
	}
	lines = append(lines, journal.LineInput{AccountID: revenue.ID, Credit: sale.Total})
	_, err = h.journal.RecordSourced(ctx, scope, SourceSales, sale.ID, journal.EntryInput{
		Date:        sale.Date,
		Reference:   sale.InvoiceNo,
		Description: fmt.Sprintf("Sale %s", sale.InvoiceNo),
		Type:        journal.EntryTypeSale,
		Lines:       lines,
	})
	return err
}

// SaleDeleted retracts all bookkeeping for a removed sale.
func (h *Hooks) SaleDeleted(ctx context.Context, scope shared.Scope, saleID int64) error {
	if err := h.journal.RemoveSourced(ctx, scope, SourceSales, saleID); err != nil {
		return err
	}
	return h.cashbook.DeleteBySource(ctx, scope.TenantID, SourceSales, saleID)
}

// PurchaseSaved synthesizes bookkeeping for a created or updated
// purchase. Only received purchases have financial effect: ordered
// bills retract any previous postings, cancelled bills additionally
// keep a cancelled cash book row for the audit trail.
func (h *Hooks) PurchaseSaved(ctx context.Context, scope shared.Scope, purchase purchases.Purchase) error {
	if purchase.Status != purchases.StatusReceived {
		if err := h.journal.RemoveSourced(ctx, scope, SourcePurchases, purchase.ID); err != nil {
			return err
		}
		if purchase.Status == purchases.StatusCancelled {
			_, err := h.cashbook.UpsertBySource(ctx, h.purchaseTxn(scope, purchase, transactions.StatusCancelled))
			return err
		}
		return h.cashbook.DeleteBySource(ctx, scope.TenantID, SourcePurchases, purchase.ID)
	}
	status := transactions.StatusCompleted
	if purchase.PaymentStatus == purchases.PaymentUnpaid {
		status = transactions.StatusPending
	}
	if _, err := h.cashbook.UpsertBySource(ctx, h.purchaseTxn(scope, purchase, status)); err != nil {
		return err
	}
	expense, err := h.system.ResolveSystemAccount(ctx, scope, accounts.SystemAccountPurchaseExpense)
	if err != nil {
		return err
	}
	money, err := h.moneyAccount(ctx, scope, method(purchase.Method))
	if err != nil {
		return err
	}
	lines := []journal.LineInput{
		{AccountID: expense.ID, Debit: purchase.Total},
		{AccountID: money.ID, Credit: purchase.Paid},
	}
	if outstanding := purchase.Outstanding(); outstanding.IsPositive() {
		payable, err := h.system.ResolveSystemAccount(ctx, scope, accounts.SystemAccountPayable)
		if err != nil {
			return err
		}
		lines = append(lines, journal.LineInput{AccountID: payable.ID, Credit: outstanding})
	}
	_, err = h.journal.RecordSourced(ctx, scope, SourcePurchases, purchase.ID, journal.EntryInput{
		Date:        purchase.Date,
		Reference:   purchase.RefNo,
		Description: fmt.Sprintf("Purchase %s", purchase.RefNo),
		Type:        journal.EntryTypePurchase,
		Lines:       lines,
	})
	return err
}

// PurchaseDeleted retracts all bookkeeping for a removed purchase.
func (h *Hooks) PurchaseDeleted(ctx context.Context, scope shared.Scope, purchaseID int64) error {
	if err := h.journal.RemoveSourced(ctx, scope, SourcePurchases, purchaseID); err != nil {
		return err
	}
	return h.cashbook.DeleteBySource(ctx, scope.TenantID, SourcePurchases, purchaseID)
}

func (h *Hooks) saleTxn(scope shared.Scope, sale sales.Sale, status transactions.TxnStatus) transactions.Transaction {
	return transactions.Transaction{
		TenantID:    scope.TenantID,
		Date:        sale.Date,
		Type:        transactions.TypeIncome,
		Status:      status,
		Method:      method(sale.Method),
		Amount:      sale.Total,
		Description: fmt.Sprintf("Sale %s", sale.InvoiceNo),
		SourceType:  SourceSales,
		SourceID:    sale.ID,
		UserID:      scope.UserID,
	}
}

func (h *Hooks) purchaseTxn(scope shared.Scope, purchase purchases.Purchase, status transactions.TxnStatus) transactions.Transaction {
	return transactions.Transaction{
		TenantID:    scope.TenantID,
		Date:        purchase.Date,
		Type:        transactions.TypeExpense,
		Status:      status,
		Method:      method(purchase.Method),
		Amount:      purchase.Total,
		Description: fmt.Sprintf("Purchase %s", purchase.RefNo),
		SourceType:  SourcePurchases,
		SourceID:    purchase.ID,
		UserID:      scope.UserID,
	}
}

func (h *Hooks) moneyAccount(ctx context.Context, scope shared.Scope, m transactions.PaymentMethod) (accounts.Account, error) {
	key := accounts.SystemAccountCash
	if m == transactions.MethodBank {
		key = accounts.SystemAccountBank
	}
	return h.system.ResolveSystemAccount(ctx, scope, key)
}
