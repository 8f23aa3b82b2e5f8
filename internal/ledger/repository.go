package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
)

// Projections only ever see posted entries; drafts stay invisible to
// every balance. Rows come back ordered by entry date, then entry
// creation time, then line id, so running balances are deterministic.
const (
	sumBeforeQuery = `SELECT COALESCE(SUM(i.debit),0), COALESCE(SUM(i.credit),0)
FROM journal_entry_items i
JOIN journal_entries e ON e.id = i.entry_id
WHERE e.tenant_id=$1 AND i.account_id=$2 AND e.status='posted' AND e.date < $3`

	rowsBetweenQuery = `SELECT i.id, e.id, e.date, e.created_at, e.reference, e.description, e.type, i.debit, i.credit
FROM journal_entry_items i
JOIN journal_entries e ON e.id = i.entry_id
WHERE e.tenant_id=$1 AND i.account_id=$2 AND e.status='posted' AND e.date >= $3 AND e.date <= $4
ORDER BY e.date ASC, e.created_at ASC, i.id ASC`
)

// RepositoryPort loads the data a ledger projection needs.
type RepositoryPort interface {
	GetAccount(ctx context.Context, tenantID, id int64) (accounts.Account, error)
	SumBefore(ctx context.Context, tenantID, accountID int64, before time.Time) (debit, credit decimal.Decimal, err error)
	RowsBetween(ctx context.Context, tenantID, accountID int64, from, to time.Time) ([]Row, error)
}

// Repository reads posted journal lines for projections.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAccount loads the minimal account header for a statement.
func (r *Repository) GetAccount(ctx context.Context, tenantID, id int64) (accounts.Account, error) {
	var account accounts.Account
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, type FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&account.ID, &account.Code, &account.Name, &account.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, accounts.ErrNotFound
		}
		return accounts.Account{}, err
	}
	return account, nil
}

// SumBefore totals posted debits and credits strictly before the window.
func (r *Repository) SumBefore(ctx context.Context, tenantID, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.pool.QueryRow(ctx, sumBeforeQuery, tenantID, accountID, before).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return debit, credit, nil
}

// RowsBetween returns posted lines inside the window in deterministic
// order: entry date, entry creation time, then line id.
func (r *Repository) RowsBetween(ctx context.Context, tenantID, accountID int64, from, to time.Time) ([]Row, error) {
	rows, err := r.pool.Query(ctx, rowsBetweenQuery, tenantID, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.LineID, &row.EntryID, &row.Date, &row.CreatedAt, &row.Reference, &row.Description, &row.Type, &row.Debit, &row.Credit); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
