package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Statement aggregates only ever count posted entries; drafts never
// reach a report.
const (
	balancesBetweenQuery = `SELECT a.id, a.code, a.name, a.type, COALESCE(SUM(i.debit),0), COALESCE(SUM(i.credit),0)
FROM accounts a
JOIN journal_entry_items i ON i.account_id = a.id
JOIN journal_entries e ON e.id = i.entry_id AND e.status='posted'
WHERE a.tenant_id=$1 AND e.tenant_id=$1 AND e.date >= $2 AND e.date <= $3
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code ASC`

	balancesThroughQuery = `SELECT a.id, a.code, a.name, a.type, COALESCE(SUM(i.debit),0), COALESCE(SUM(i.credit),0)
FROM accounts a
JOIN journal_entry_items i ON i.account_id = a.id
JOIN journal_entries e ON e.id = i.entry_id AND e.status='posted'
WHERE a.tenant_id=$1 AND e.tenant_id=$1 AND e.date <= $2
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code ASC`

	cashOpeningQuery = `SELECT COALESCE(SUM(i.debit),0), COALESCE(SUM(i.credit),0)
FROM journal_entry_items i
JOIN journal_entries e ON e.id = i.entry_id
WHERE e.tenant_id=$1 AND i.account_id = ANY($2) AND e.status='posted' AND e.date < $3`

	cashMovementsQuery = `SELECT e.type, COALESCE(SUM(i.debit),0), COALESCE(SUM(i.credit),0)
FROM journal_entry_items i
JOIN journal_entries e ON e.id = i.entry_id
WHERE e.tenant_id=$1 AND i.account_id = ANY($2) AND e.status='posted' AND e.date >= $3 AND e.date <= $4
GROUP BY e.type
ORDER BY e.type ASC`
)

// RepositoryPort aggregates posted ledger data for statements.
type RepositoryPort interface {
	BalancesBetween(ctx context.Context, tenantID int64, from, to time.Time) ([]AccountBalance, error)
	BalancesThrough(ctx context.Context, tenantID int64, asOf time.Time) ([]AccountBalance, error)
	CashOpening(ctx context.Context, tenantID int64, accountIDs []int64, before time.Time) (decimal.Decimal, error)
	CashMovements(ctx context.Context, tenantID int64, accountIDs []int64, from, to time.Time) ([]CashMovement, error)
}

// Repository reads aggregated posting data for statements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) scanBalances(ctx context.Context, query string, args ...any) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var bal AccountBalance
		if err := rows.Scan(&bal.AccountID, &bal.Code, &bal.Name, &bal.Type, &bal.Debit, &bal.Credit); err != nil {
			return nil, err
		}
		out = append(out, bal)
	}
	return out, rows.Err()
}

// BalancesBetween sums posted activity per account inside the window.
func (r *Repository) BalancesBetween(ctx context.Context, tenantID int64, from, to time.Time) ([]AccountBalance, error) {
	return r.scanBalances(ctx, balancesBetweenQuery, tenantID, from, to)
}

// BalancesThrough sums posted activity per account up to the as-of date.
func (r *Repository) BalancesThrough(ctx context.Context, tenantID int64, asOf time.Time) ([]AccountBalance, error) {
	return r.scanBalances(ctx, balancesThroughQuery, tenantID, asOf)
}

// CashOpening returns the combined cash account balance before the window.
func (r *Repository) CashOpening(ctx context.Context, tenantID int64, accountIDs []int64, before time.Time) (decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.pool.QueryRow(ctx, cashOpeningQuery, tenantID, accountIDs, before).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, err
	}
	return debit.Sub(credit), nil
}

// CashMovements groups the window's cash account activity by entry type.
func (r *Repository) CashMovements(ctx context.Context, tenantID int64, accountIDs []int64, from, to time.Time) ([]CashMovement, error) {
	rows, err := r.pool.Query(ctx, cashMovementsQuery, tenantID, accountIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.EntryType, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
