package purchases

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// HooksPort receives document events after the bill is stored.
type HooksPort interface {
	PurchaseSaved(ctx context.Context, scope shared.Scope, purchase Purchase) error
	PurchaseDeleted(ctx context.Context, scope shared.Scope, purchaseID int64) error
}

// AuditPort records bill changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages supplier bills and dispatches document events.
type Service struct {
	repo  RepositoryPort
	hooks HooksPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the purchases service.
func NewService(repo RepositoryPort, hooks HooksPort, audit AuditPort) *Service {
	return &Service{repo: repo, hooks: hooks, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Input groups fields for creating or replacing a bill.
type Input struct {
	RefNo        string
	SupplierName string
	Date         time.Time
	Total        decimal.Decimal
	Paid         decimal.Decimal
	Status       PurchaseStatus
	Method       string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.RefNo) == "" {
		return errors.New("purchases: reference number required")
	}
	if in.Date.IsZero() {
		return errors.New("purchases: date required")
	}
	if !in.Total.IsPositive() || in.Paid.IsNegative() {
		return ErrInvalidAmount
	}
	if in.Paid.GreaterThan(in.Total) {
		return ErrOverpaid
	}
	if in.Status != "" && !in.Status.Valid() {
		return errors.New("purchases: unknown status")
	}
	return nil
}

// Create stores a bill and dispatches the saved event.
func (s *Service) Create(ctx context.Context, scope shared.Scope, input Input) (Purchase, error) {
	if err := scope.Validate(); err != nil {
		return Purchase{}, err
	}
	if err := input.validate(); err != nil {
		return Purchase{}, err
	}
	purchase := Purchase{
		TenantID:      scope.TenantID,
		RefNo:         strings.TrimSpace(input.RefNo),
		SupplierName:  strings.TrimSpace(input.SupplierName),
		Date:          input.Date,
		Total:         input.Total,
		Paid:          input.Paid,
		Status:        input.Status,
		PaymentStatus: DerivePaymentStatus(input.Total, input.Paid),
		Method:        input.Method,
		UserID:        scope.UserID,
	}
	if purchase.Status == "" {
		purchase.Status = StatusReceived
	}
	id, err := s.repo.Create(ctx, purchase)
	if err != nil {
		return Purchase{}, err
	}
	purchase.ID = id
	if err := s.dispatchSaved(ctx, scope, purchase); err != nil {
		_ = s.repo.Delete(ctx, scope.TenantID, id)
		return Purchase{}, err
	}
	s.record(ctx, scope, "purchase.create", id, map[string]any{"ref": purchase.RefNo, "total": purchase.Total.String()})
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Update replaces a bill and re-dispatches the saved event.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, input Input) (Purchase, error) {
	if err := scope.Validate(); err != nil {
		return Purchase{}, err
	}
	if err := input.validate(); err != nil {
		return Purchase{}, err
	}
	purchase, err := s.repo.Get(ctx, scope.TenantID, id)
	if err != nil {
		return Purchase{}, err
	}
	purchase.RefNo = strings.TrimSpace(input.RefNo)
	purchase.SupplierName = strings.TrimSpace(input.SupplierName)
	purchase.Date = input.Date
	purchase.Total = input.Total
	purchase.Paid = input.Paid
	if input.Status != "" {
		purchase.Status = input.Status
	}
	purchase.PaymentStatus = DerivePaymentStatus(purchase.Total, purchase.Paid)
	purchase.Method = input.Method
	if err := s.repo.Update(ctx, purchase); err != nil {
		return Purchase{}, err
	}
	if err := s.dispatchSaved(ctx, scope, purchase); err != nil {
		return Purchase{}, err
	}
	s.record(ctx, scope, "purchase.update", id, map[string]any{"status": purchase.Status})
	return s.repo.Get(ctx, scope.TenantID, id)
}

// Delete removes a bill and dispatches the deleted event.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, scope.TenantID, id); err != nil {
		return err
	}
	if s.hooks != nil {
		if err := s.hooks.PurchaseDeleted(ctx, scope, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.record(ctx, scope, "purchase.delete", id, nil)
	return nil
}

// Get loads a bill.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Purchase, error) {
	if err := scope.Validate(); err != nil {
		return Purchase{}, err
	}
	return s.repo.Get(ctx, scope.TenantID, id)
}

// List returns bills matching the filter.
func (s *Service) List(ctx context.Context, scope shared.Scope, filter ListFilter) ([]Purchase, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope.TenantID, filter)
}

func (s *Service) dispatchSaved(ctx context.Context, scope shared.Scope, purchase Purchase) error {
	if s.hooks == nil {
		return nil
	}
	return s.hooks.PurchaseSaved(ctx, scope, purchase)
}

func (s *Service) record(ctx context.Context, scope shared.Scope, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   action,
		Entity:   "purchase",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
