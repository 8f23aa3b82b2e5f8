package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// AuditPort records registry changes for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides chart of accounts operations.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the accounts service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput groups fields for creating an account.
type CreateInput struct {
	Code        string
	Name        string
	Type        AccountType
	Subtype     string
	Description string
}

// UpdateInput holds optional account updates.
type UpdateInput struct {
	Name        *string
	Subtype     *string
	Description *string
	IsActive    *bool
}

// Create registers a new account in the tenant's chart.
func (s *Service) Create(ctx context.Context, scope shared.Scope, input CreateInput) (Account, error) {
	if err := scope.Validate(); err != nil {
		return Account{}, err
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return Account{}, errors.New("accounts: code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return Account{}, errors.New("accounts: name required")
	}
	if !input.Type.Valid() {
		return Account{}, ErrInvalidType
	}
	account := Account{
		TenantID:    scope.TenantID,
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		Type:        input.Type,
		Subtype:     input.Subtype,
		Description: input.Description,
		IsActive:    true,
	}
	id, err := s.repo.Create(ctx, account)
	if err != nil {
		return Account{}, err
	}
	account.ID = id
	s.record(ctx, scope, "account.create", id, map[string]any{"code": account.Code})
	return account, nil
}

// Update edits mutable fields of an existing account.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, input UpdateInput) (Account, error) {
	if err := scope.Validate(); err != nil {
		return Account{}, err
	}
	account, err := s.repo.Get(ctx, scope.TenantID, id)
	if err != nil {
		return Account{}, err
	}
	if input.Name != nil {
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.Subtype != nil {
		account.Subtype = *input.Subtype
	}
	if input.Description != nil {
		account.Description = *input.Description
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	if account.Name == "" {
		return Account{}, errors.New("accounts: name required")
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	s.record(ctx, scope, "account.update", id, map[string]any{"code": account.Code})
	return account, nil
}

// Delete removes an account. Accounts referenced by posting lines are
// protected; the failure surfaces as ErrAccountInUse rather than a raw
// storage error.
func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	count, err := s.repo.CountLines(ctx, scope.TenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAccountInUse
	}
	if err := s.repo.Delete(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.record(ctx, scope, "account.delete", id, nil)
	return nil
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Account, error) {
	if err := scope.Validate(); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, scope.TenantID, id)
}

// List returns the tenant's chart ordered by code.
func (s *Service) List(ctx context.Context, scope shared.Scope, activeOnly bool) ([]Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope.TenantID, activeOnly)
}

// ResolveSystemAccount resolves a configured control account. A missing
// configuration is a hard error, never an implicit account creation.
func (s *Service) ResolveSystemAccount(ctx context.Context, scope shared.Scope, key SystemAccountKey) (Account, error) {
	if err := scope.Validate(); err != nil {
		return Account{}, err
	}
	account, err := s.repo.ResolveSystemAccount(ctx, scope.TenantID, key)
	if err != nil {
		if errors.Is(err, ErrSystemAccountNotConfigured) {
			return Account{}, fmt.Errorf("%w: %s", ErrSystemAccountNotConfigured, key)
		}
		return Account{}, err
	}
	return account, nil
}

func (s *Service) record(ctx context.Context, scope shared.Scope, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}
