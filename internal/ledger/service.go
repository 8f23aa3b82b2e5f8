package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// Service builds ledger statements for single accounts.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Statement projects posted lines of one account onto a running-balance
// ledger. A zero or unknown account id yields an empty statement rather
// than an error, so callers can render a blank ledger view.
func (s *Service) Statement(ctx context.Context, scope shared.Scope, accountID int64, from, to time.Time) (Statement, error) {
	if err := scope.Validate(); err != nil {
		return Statement{}, err
	}
	if accountID == 0 {
		return Statement{From: from, To: to}, nil
	}
	account, err := s.repo.GetAccount(ctx, scope.TenantID, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return Statement{AccountID: accountID, From: from, To: to}, nil
		}
		return Statement{}, err
	}
	openDebit, openCredit, err := s.repo.SumBefore(ctx, scope.TenantID, accountID, from)
	if err != nil {
		return Statement{}, err
	}
	rows, err := s.repo.RowsBetween(ctx, scope.TenantID, accountID, from, to)
	if err != nil {
		return Statement{}, err
	}
	return buildStatement(account, from, to, openDebit, openCredit, rows), nil
}
