package sales

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// HooksPort receives document events after the invoice is stored. The
// bookkeeping side effects (cash book row, journal entry) live behind
// this port so the sales module never touches ledger tables itself.
type HooksPort interface {
	SaleSaved(ctx context.Context, scope shared.Scope, sale Sale) error
	SaleDeleted(ctx context.Context, scope shared.Scope, saleID int64) error
}

// AuditPort records invoice changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages sales invoices and dispatches document events.
type Service struct {
	repo  RepositoryPort
	hooks HooksPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the sales service. Hooks may be nil in tests.
func NewService(repo RepositoryPort, hooks HooksPort, audit AuditPort) *Service {
	return &Service{repo: repo, hooks: hooks, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Input groups fields for creating or replacing an invoice.
type Input struct {
	InvoiceNo    string
	CustomerName string
	Date         time.Time
	Total        decimal.Decimal
	Paid         decimal.Decimal
	Status       SaleStatus
	Method       string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.InvoiceNo) == "" {
		return errors.New("sales: invoice number required")
	}
	if in.Date.IsZero() {
		return errors.New("sales: date required")
	}
	if !in.Total.IsPositive() || in.Paid.IsNegative() {
		return ErrInvalidAmount
	}
	if in.Paid.GreaterThan(in.Total) {
		return ErrOverpaid
	}
	if in.Status != "" && !in.Status.Valid() {
		return errors.New("sales: unknown status")
	}
	return nil
}

// Create stores an invoice and dispatches the saved event.
func (s *Service) Create(ctx context.Context, scope shared.Scope, input Input) (Sale, error) {
	if err := scope.Validate(); err != nil {
		return Sale{}, err
	}
	if err := input.validate(); err != nil {
		return Sale{}, err
	}
	sale := Sale{
		TenantID:      scope.TenantID,
		InvoiceNo:     strings.TrimSpace(input.InvoiceNo),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		Date:          input.Date,
		Total:         input.Total,
		Paid:          input.Paid,
		Status:        input.Status,
		PaymentStatus: DerivePaymentStatus(input.Total, input.Paid),
		Method:        input.Method,
		UserID:        scope.UserID,
	}
	if sale.Status == "" {
		sale.Status = StatusCompleted
	}
	id, err := s.repo.Create(ctx, sale)
	if err != nil {
		return Sale{}, err
	}
	sale.ID = id
	if err := s.dispatchSaved(ctx, scope, sale); err != nil {
		_ = s.repo.Delete(ctx, scope.TenantID, id)
		return Sale{}, err
	}
	s.record(ctx, scope, "sale.create", id, map[string]any{"invoice": sale.InvoiceNo, "total": sale.Total.String()})
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Update replaces an invoice and re-dispatches the saved event so the
// bookkeeping converges on the new amounts.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, input Input) (Sale, error) {
	if err := scope.Validate(); err != nil {
		return Sale{}, err
	}
	if err := input.validate(); err != nil {
		return Sale{}, err
	}
	sale, err := s.repo.Get(ctx, scope.TenantID, id)
	if err != nil {
		return Sale{}, err
	}
	sale.InvoiceNo = strings.TrimSpace(input.InvoiceNo)
	sale.CustomerName = strings.TrimSpace(input.CustomerName)
	sale.Date = input.Date
	sale.Total = input.Total
	sale.Paid = input.Paid
	if input.Status != "" {
		sale.Status = input.Status
	}
	sale.PaymentStatus = DerivePaymentStatus(sale.Total, sale.Paid)
	sale.Method = input.Method
	if err := s.repo.Update(ctx, sale); err != nil {
		return Sale{}, err
	}
	if err := s.dispatchSaved(ctx, scope, sale); err != nil {
		return Sale{}, err
	}
	s.record(ctx, scope, "sale.update", id, map[string]any{"status": sale.Status})
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Delete removes an invoice and dispatches the deleted event.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, scope.TenantID, id); err != nil {
		return err
	}
	if s.hooks != nil {
		if err := s.hooks.SaleDeleted(ctx, scope, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.record(ctx, scope, "sale.delete", id, nil)
	return nil
}

// Get loads an invoice.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Sale, error) {
	if err := scope.Validate(); err != nil {
		return Sale{}, err
	}
	return s.repo.Get(ctx, scope.TenantID, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, scope shared.Scope, filter ListFilter) ([]Sale, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope.TenantID, filter)
}

func (s *Service) dispatchSaved(ctx context.Context, scope shared.Scope, sale Sale) error {
	if s.hooks == nil {
		return nil
	}
	return s.hooks.SaleSaved(ctx, scope, sale)
}

func (s *Service) record(ctx context.Context, scope shared.Scope, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   action,
		Entity:   "sale",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
