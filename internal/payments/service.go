package payments

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/purchases"
	"github.com/sentra-pos/sentra-pos/internal/sales"
	"github.com/sentra-pos/sentra-pos/internal/shared"
	"github.com/sentra-pos/sentra-pos/internal/transactions"
)

// JournalPort posts the settlement entry on the payment transaction,
// so the settled document and its entry commit or roll back together.
type JournalPort interface {
	CreateEntryTx(ctx context.Context, scope shared.Scope, tx journal.TxRepository, input journal.EntryInput) (journal.Entry, error)
	NotifyPosted(ctx context.Context, tenantID int64, source string)
}

// SystemAccountResolver resolves configured control accounts.
type SystemAccountResolver interface {
	ResolveSystemAccount(ctx context.Context, scope shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error)
}

// IdempotencyPort deduplicates retried payment requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort records settlements.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records customer collections and supplier payments.
type Service struct {
	repo    RepositoryPort
	journal JournalPort
	system  SystemAccountResolver
	idem    IdempotencyPort
	audit   AuditPort
	now     func() time.Time
}

// NewService constructs the payments service. Idempotency and audit
// ports may be nil in tests.
func NewService(repo RepositoryPort, journalPort JournalPort, system SystemAccountResolver, idem IdempotencyPort, audit AuditPort) *Service {
	return &Service{repo: repo, journal: journalPort, system: system, idem: idem, audit: audit, now: time.Now}
}

// RecordCustomerPayment settles part of a sale invoice. The invoice row
// is locked for the duration of the transaction, the amount is capped
// at the remaining balance, and a posted entry moves the receivable
// into cash or bank.
func (s *Service) RecordCustomerPayment(ctx context.Context, scope shared.Scope, input Input) (Receipt, error) {
	return s.record(ctx, scope, input, customerLeg{})
}

// RecordSupplierPayment settles part of a purchase bill, reducing the
// payable against cash or bank.
func (s *Service) RecordSupplierPayment(ctx context.Context, scope shared.Scope, input Input) (Receipt, error) {
	return s.record(ctx, scope, input, supplierLeg{})
}

// leg captures what differs between collecting from a customer and
// paying a supplier.
type leg interface {
	lock(ctx context.Context, tx TxRepository, tenantID, id int64) (Document, error)
	settle(ctx context.Context, tx TxRepository, tenantID int64, doc Document) error
	counterKey() accounts.SystemAccountKey
	lines(moneyID, counterID int64, input Input) []journal.LineInput
	describe(ref string) string
	entity() string
}

type customerLeg struct{}

func (customerLeg) lock(ctx context.Context, tx TxRepository, tenantID, id int64) (Document, error) {
	return tx.LockSale(ctx, tenantID, id)
}

func (customerLeg) settle(ctx context.Context, tx TxRepository, tenantID int64, doc Document) error {
	status := sales.DerivePaymentStatus(doc.Total, doc.Paid)
	return tx.SettleSale(ctx, tenantID, doc.ID, doc.Paid, string(status))
}

func (customerLeg) counterKey() accounts.SystemAccountKey { return accounts.SystemAccountReceivable }

func (customerLeg) lines(moneyID, counterID int64, input Input) []journal.LineInput {
	return []journal.LineInput{
		{AccountID: moneyID, Debit: input.Amount},
		{AccountID: counterID, Credit: input.Amount},
	}
}

func (customerLeg) describe(ref string) string { return fmt.Sprintf("Payment received for %s", ref) }
func (customerLeg) entity() string             { return "sale" }

type supplierLeg struct{}

func (supplierLeg) lock(ctx context.Context, tx TxRepository, tenantID, id int64) (Document, error) {
	return tx.LockPurchase(ctx, tenantID, id)
}

func (supplierLeg) settle(ctx context.Context, tx TxRepository, tenantID int64, doc Document) error {
	status := purchases.DerivePaymentStatus(doc.Total, doc.Paid)
	return tx.SettlePurchase(ctx, tenantID, doc.ID, doc.Paid, string(status))
}

func (supplierLeg) counterKey() accounts.SystemAccountKey { return accounts.SystemAccountPayable }

func (supplierLeg) lines(moneyID, counterID int64, input Input) []journal.LineInput {
	return []journal.LineInput{
		{AccountID: counterID, Debit: input.Amount},
		{AccountID: moneyID, Credit: input.Amount},
	}
}

func (supplierLeg) describe(ref string) string { return fmt.Sprintf("Payment made for %s", ref) }
func (supplierLeg) entity() string             { return "purchase" }

func (s *Service) record(ctx context.Context, scope shared.Scope, input Input, l leg) (Receipt, error) {
	if err := scope.Validate(); err != nil {
		return Receipt{}, err
	}
	if !input.Amount.IsPositive() {
		return Receipt{}, ErrInvalidAmount
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}
	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "payments"); err != nil {
			return Receipt{}, err
		}
	}
	money, err := s.moneyAccount(ctx, scope, input.Method)
	if err != nil {
		return Receipt{}, s.release(ctx, input, err)
	}
	counter, err := s.system.ResolveSystemAccount(ctx, scope, l.counterKey())
	if err != nil {
		return Receipt{}, s.release(ctx, input, err)
	}
	var receipt Receipt
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := l.lock(ctx, tx, scope.TenantID, input.DocumentID)
		if err != nil {
			return err
		}
		if input.Amount.GreaterThan(doc.Remaining()) {
			return fmt.Errorf("%w: %s remaining on %s", ErrPaymentExceedsBalance, doc.Remaining().StringFixed(2), doc.Ref)
		}
		doc.Paid = doc.Paid.Add(input.Amount)
		if err := l.settle(ctx, tx, scope.TenantID, doc); err != nil {
			return err
		}
		entry, err := s.journal.CreateEntryTx(ctx, scope, tx.Journal(), journal.EntryInput{
			Date:        input.Date,
			Reference:   doc.Ref,
			Description: l.describe(doc.Ref),
			Type:        journal.EntryTypePayment,
			Status:      journal.StatusPosted,
			Lines:       l.lines(money.ID, counter.ID, input),
		})
		if err != nil {
			return err
		}
		receipt = Receipt{
			DocumentID:    doc.ID,
			Ref:           doc.Ref,
			Amount:        input.Amount,
			Remaining:     doc.Remaining(),
			PaymentStatus: paymentStatus(doc),
			EntryID:       entry.ID,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, s.release(ctx, input, err)
	}
	s.journal.NotifyPosted(ctx, scope.TenantID, "payments")
	s.recordAudit(ctx, scope, l.entity(), input)
	return receipt, nil
}

func paymentStatus(doc Document) string {
	if doc.Remaining().IsZero() {
		return "paid"
	}
	return "partial"
}

// release frees the idempotency key after a failed attempt so the
// client can retry with the same key.
func (s *Service) release(ctx context.Context, input Input, err error) error {
	if input.IdempotencyKey != "" && s.idem != nil {
		_ = s.idem.Delete(ctx, input.IdempotencyKey)
	}
	return err
}

func (s *Service) moneyAccount(ctx context.Context, scope shared.Scope, m transactions.PaymentMethod) (accounts.Account, error) {
	key := accounts.SystemAccountCash
	if m == transactions.MethodBank {
		key = accounts.SystemAccountBank
	}
	return s.system.ResolveSystemAccount(ctx, scope, key)
}

func (s *Service) recordAudit(ctx context.Context, scope shared.Scope, entity string, input Input) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   "payments.record",
		Entity:   entity,
		EntityID: strconv.FormatInt(input.DocumentID, 10),
		Meta:     map[string]any{"amount": input.Amount.StringFixed(2), "method": input.Method},
		At:       s.now(),
	})
}
