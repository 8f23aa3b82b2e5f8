package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// SystemAccountResolver resolves configured control accounts.
type SystemAccountResolver interface {
	ResolveSystemAccount(ctx context.Context, scope shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error)
}

// Service assembles financial statements from posted ledger data.
// Builds are cached per tenant and collapsed under singleflight so a
// cold cache does not fan identical aggregate queries out to Postgres.
type Service struct {
	repo    RepositoryPort
	system  SystemAccountResolver
	cache   *Cache
	flights singleflight.Group
}

// NewService constructs the reports service. Cache may be nil.
func NewService(repo RepositoryPort, system SystemAccountResolver, cache *Cache) *Service {
	return &Service{repo: repo, system: system, cache: cache}
}

func (s *Service) fetch(ctx context.Context, scope shared.Scope, report string, window string, dest interface{}, build func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, scope.TenantID, "reports", fmt.Sprint(scope.TenantID), report, window)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (interface{}, error) {
		value, err, _ := s.flights.Do(key, func() (interface{}, error) {
			return build(ctx)
		})
		return value, err
	})
}

func windowKey(from, to time.Time) string {
	return from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
}

// TrialBalance builds the trial balance over a window.
func (s *Service) TrialBalance(ctx context.Context, scope shared.Scope, from, to time.Time) (TrialBalance, error) {
	if err := scope.Validate(); err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err := s.fetch(ctx, scope, "tb", windowKey(from, to), &tb, func(ctx context.Context) (interface{}, error) {
		balances, err := s.repo.BalancesBetween(ctx, scope.TenantID, from, to)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(from, to, balances), nil
	})
	return tb, err
}

// ProfitLoss builds the income statement over a window.
func (s *Service) ProfitLoss(ctx context.Context, scope shared.Scope, from, to time.Time) (ProfitLoss, error) {
	if err := scope.Validate(); err != nil {
		return ProfitLoss{}, err
	}
	var pl ProfitLoss
	err := s.fetch(ctx, scope, "pl", windowKey(from, to), &pl, func(ctx context.Context) (interface{}, error) {
		balances, err := s.repo.BalancesBetween(ctx, scope.TenantID, from, to)
		if err != nil {
			return nil, err
		}
		return BuildProfitLoss(from, to, balances), nil
	})
	return pl, err
}

// BalanceSheet builds financial position as of a date.
func (s *Service) BalanceSheet(ctx context.Context, scope shared.Scope, asOf time.Time) (BalanceSheet, error) {
	if err := scope.Validate(); err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err := s.fetch(ctx, scope, "bs", asOf.Format("2006-01-02"), &bs, func(ctx context.Context) (interface{}, error) {
		balances, err := s.repo.BalancesThrough(ctx, scope.TenantID, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(asOf, balances), nil
	})
	return bs, err
}

// CashFlow builds the cash flow statement over a window from the
// configured cash and bank control accounts.
func (s *Service) CashFlow(ctx context.Context, scope shared.Scope, from, to time.Time) (CashFlow, error) {
	if err := scope.Validate(); err != nil {
		return CashFlow{}, err
	}
	var cf CashFlow
	err := s.fetch(ctx, scope, "cf", windowKey(from, to), &cf, func(ctx context.Context) (interface{}, error) {
		ids, err := s.cashAccountIDs(ctx, scope)
		if err != nil {
			return nil, err
		}
		opening, err := s.repo.CashOpening(ctx, scope.TenantID, ids, from)
		if err != nil {
			return nil, err
		}
		movements, err := s.repo.CashMovements(ctx, scope.TenantID, ids, from, to)
		if err != nil {
			return nil, err
		}
		return BuildCashFlow(from, to, opening, movements), nil
	})
	return cf, err
}

func (s *Service) cashAccountIDs(ctx context.Context, scope shared.Scope) ([]int64, error) {
	var ids []int64
	for _, key := range []accounts.SystemAccountKey{accounts.SystemAccountCash, accounts.SystemAccountBank} {
		account, err := s.system.ResolveSystemAccount(ctx, scope, key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, account.ID)
	}
	return ids, nil
}
