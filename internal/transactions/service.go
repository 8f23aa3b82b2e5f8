package transactions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// SourceModule names this package in journal source links.
const SourceModule = "transactions"

// JournalPort posts and retracts entries synthesized from the cash book.
type JournalPort interface {
	RecordSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64, input journal.EntryInput) (journal.Entry, error)
	RemoveSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64) error
}

// SystemAccountResolver resolves configured control accounts.
type SystemAccountResolver interface {
	ResolveSystemAccount(ctx context.Context, scope shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error)
}

// AuditPort records cash book changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the cash book. Manual rows immediately post a
// matching journal entry against the cash or bank control account;
// rows synthesized by other documents are read-only here.
type Service struct {
	repo    RepositoryPort
	journal JournalPort
	system  SystemAccountResolver
	audit   AuditPort
	now     func() time.Time
}

// NewService constructs the transactions service.
func NewService(repo RepositoryPort, journalPort JournalPort, system SystemAccountResolver, audit AuditPort) *Service {
	return &Service{repo: repo, journal: journalPort, system: system, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput groups fields for a manual cash book row.
type CreateInput struct {
	Date        time.Time
	Type        TxnType
	Method      PaymentMethod
	Amount      decimal.Decimal
	Description string
	CategoryID  int64
}

func (in CreateInput) validate() error {
	if in.Date.IsZero() {
		return errors.New("transactions: date required")
	}
	if !in.Type.Valid() {
		return errors.New("transactions: unknown type")
	}
	if !in.Method.Valid() {
		return errors.New("transactions: unknown payment method")
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if in.CategoryID == 0 {
		return errors.New("transactions: category account required")
	}
	return nil
}

// Create records a manual income or expense row and posts its entry.
func (s *Service) Create(ctx context.Context, scope shared.Scope, input CreateInput) (Transaction, error) {
	if err := scope.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := input.validate(); err != nil {
		return Transaction{}, err
	}
	txn := Transaction{
		TenantID:    scope.TenantID,
		Date:        input.Date,
		Type:        input.Type,
		Status:      StatusCompleted,
		Method:      input.Method,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		UserID:      scope.UserID,
	}
	id, err := s.repo.Create(ctx, txn)
	if err != nil {
		return Transaction{}, err
	}
	txn.ID = id
	if err := s.postEntry(ctx, scope, txn); err != nil {
		// keep the books consistent: drop the row when posting fails
		_ = s.repo.Delete(ctx, scope.TenantID, id)
		return Transaction{}, err
	}
	s.record(ctx, scope, "transaction.create", id, map[string]any{"type": txn.Type, "amount": txn.Amount.String()})
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Update rewrites a manual row and reposts its journal entry.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, input CreateInput) (Transaction, error) {
	if err := scope.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := input.validate(); err != nil {
		return Transaction{}, err
	}
	current, err := s.repo.Get(ctx, scope.TenantID, id)
	if err != nil {
		return Transaction{}, err
	}
	if current.SourceType != "" {
		return Transaction{}, ErrSourceImmutable
	}
	current.Date = input.Date
	current.Type = input.Type
	current.Method = input.Method
	current.Amount = input.Amount
	current.Description = strings.TrimSpace(input.Description)
	current.CategoryID = input.CategoryID
	if err := s.repo.Update(ctx, current); err != nil {
		return Transaction{}, err
	}
	if err := s.postEntry(ctx, scope, current); err != nil {
		return Transaction{}, err
	}
	s.record(ctx, scope, "transaction.update", id, nil)
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Delete removes a manual row and retracts its journal entry.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	current, err := s.repo.Get(ctx, scope.TenantID, id)
	if err != nil {
		return err
	}
	if current.SourceType != "" {
		return ErrSourceImmutable
	}
	if err := s.journal.RemoveSourced(ctx, scope, SourceModule, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.record(ctx, scope, "transaction.delete", id, nil)
	return nil
}

// Get loads one cash book row.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Transaction, error) {
	if err := scope.Validate(); err != nil {
		return Transaction{}, err
	}
	return s.repo.Get(ctx, scope.TenantID, id)
}

// List returns cash book rows matching the filter.
func (s *Service) List(ctx context.Context, scope shared.Scope, filter ListFilter) ([]Transaction, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope.TenantID, filter)
}

func (s *Service) postEntry(ctx context.Context, scope shared.Scope, txn Transaction) error {
	moneyKey := accounts.SystemAccountCash
	entryType := journal.EntryTypeCashIn
	if txn.Method == MethodBank {
		moneyKey = accounts.SystemAccountBank
		entryType = journal.EntryTypeBankIn
	}
	if txn.Type == TypeExpense {
		if txn.Method == MethodBank {
			entryType = journal.EntryTypeBankOut
		} else {
			entryType = journal.EntryTypeCashOut
		}
	}
	money, err := s.system.ResolveSystemAccount(ctx, scope, moneyKey)
	if err != nil {
		return err
	}
	var lines []journal.LineInput
	if txn.Type == TypeIncome {
		lines = []journal.LineInput{
			{AccountID: money.ID, Debit: txn.Amount},
			{AccountID: txn.CategoryID, Credit: txn.Amount},
		}
	} else {
		lines = []journal.LineInput{
			{AccountID: txn.CategoryID, Debit: txn.Amount},
			{AccountID: money.ID, Credit: txn.Amount},
		}
	}
	_, err = s.journal.RecordSourced(ctx, scope, SourceModule, txn.ID, journal.EntryInput{
		Date:        txn.Date,
		Reference:   "TXN-" + strconv.FormatInt(txn.ID, 10),
		Description: txn.Description,
		Type:        entryType,
		Lines:       lines,
	})
	return err
}

func (s *Service) record(ctx context.Context, scope shared.Scope, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
