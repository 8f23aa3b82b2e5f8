package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort persists cash book rows.
type RepositoryPort interface {
	Create(ctx context.Context, txn Transaction) (int64, error)
	Update(ctx context.Context, txn Transaction) error
	Delete(ctx context.Context, tenantID, id int64) error
	Get(ctx context.Context, tenantID, id int64) (Transaction, error)
	GetBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) (Transaction, error)
	UpsertBySource(ctx context.Context, txn Transaction) (int64, error)
	DeleteBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) error
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Transaction, error)
}

// ListFilter narrows cash book listings.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Type   TxnType
	Method PaymentMethod
	Limit  int
	Offset int
}

// Repository is the Postgres cash book store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txnColumns = `id, tenant_id, date, type, status, method, amount, description, category_id, source_type, source_id, user_id, created_at, updated_at`

func scanTxn(row pgx.Row) (Transaction, error) {
	var txn Transaction
	var sourceType *string
	var sourceID, categoryID, userID *int64
	err := row.Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.Type, &txn.Status, &txn.Method, &txn.Amount,
		&txn.Description, &categoryID, &sourceType, &sourceID, &userID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	if sourceType != nil {
		txn.SourceType = *sourceType
	}
	if sourceID != nil {
		txn.SourceID = *sourceID
	}
	if categoryID != nil {
		txn.CategoryID = *categoryID
	}
	if userID != nil {
		txn.UserID = *userID
	}
	return txn, nil
}

func nullStr(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

// Create inserts a cash book row. A duplicate source link maps to
// ErrDuplicateSource.
func (r *Repository) Create(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO transactions (tenant_id, date, type, status, method, amount, description, category_id, source_type, source_id, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		txn.TenantID, txn.Date, txn.Type, txn.Status, txn.Method, txn.Amount, txn.Description,
		nullInt(txn.CategoryID), nullStr(txn.SourceType), nullInt(txn.SourceID), nullInt(txn.UserID)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrDuplicateSource
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites the mutable fields of a row.
func (r *Repository) Update(ctx context.Context, txn Transaction) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE transactions SET date=$3, type=$4, status=$5, method=$6, amount=$7, description=$8, category_id=$9, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`,
		txn.TenantID, txn.ID, txn.Date, txn.Type, txn.Status, txn.Method, txn.Amount, txn.Description, nullInt(txn.CategoryID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a row by id.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a row by id.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return scanTxn(row)
}

// GetBySource loads the row synthesized from a source document.
func (r *Repository) GetBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE tenant_id=$1 AND source_type=$2 AND source_id=$3`,
		tenantID, sourceType, sourceID)
	return scanTxn(row)
}

// UpsertBySource inserts or replaces the row synthesized from a source
// document, keyed by (tenant, source_type, source_id).
func (r *Repository) UpsertBySource(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO transactions (tenant_id, date, type, status, method, amount, description, category_id, source_type, source_id, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (tenant_id, source_type, source_id) DO UPDATE
SET date=EXCLUDED.date, type=EXCLUDED.type, status=EXCLUDED.status, method=EXCLUDED.method,
    amount=EXCLUDED.amount, description=EXCLUDED.description, category_id=EXCLUDED.category_id, updated_at=NOW()
RETURNING id`,
		txn.TenantID, txn.Date, txn.Type, txn.Status, txn.Method, txn.Amount, txn.Description,
		nullInt(txn.CategoryID), txn.SourceType, txn.SourceID, nullInt(txn.UserID)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteBySource removes the row synthesized from a source document.
// Missing rows are not an error.
func (r *Repository) DeleteBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE tenant_id=$1 AND source_type=$2 AND source_id=$3`, tenantID, sourceType, sourceID)
	return err
}

// List returns cash book rows matching the filter, newest first.
func (r *Repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Transaction, error) {
	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		conds = append(conds, fmt.Sprintf("method = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + txnColumns + ` FROM transactions WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}
