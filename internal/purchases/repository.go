package purchases

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

// RepositoryPort persists supplier bills.
type RepositoryPort interface {
	Create(ctx context.Context, purchase Purchase) (int64, error)
	Update(ctx context.Context, purchase Purchase) error
	Delete(ctx context.Context, tenantID, id int64) error
	Get(ctx context.Context, tenantID, id int64) (Purchase, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Purchase, error)
}

// ListFilter narrows bill listings.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	Status        PurchaseStatus
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// Repository is the Postgres bill store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const purchaseColumns = `id, tenant_id, ref_no, supplier_name, date, total, paid, status, payment_status, method, user_id, created_at, updated_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var purchase Purchase
	var userID *int64
	err := row.Scan(&purchase.ID, &purchase.TenantID, &purchase.RefNo, &purchase.SupplierName,
		&purchase.Date, &purchase.Total, &purchase.Paid, &purchase.Status, &purchase.PaymentStatus,
		&purchase.Method, &userID, &purchase.CreatedAt, &purchase.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	if userID != nil {
		purchase.UserID = *userID
	}
	return purchase, nil
}

// Create inserts a bill. Duplicate reference numbers map to
// ErrDuplicateRef.
func (r *Repository) Create(ctx context.Context, purchase Purchase) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO purchases (tenant_id, ref_no, supplier_name, date, total, paid, status, payment_status, method, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		purchase.TenantID, purchase.RefNo, purchase.SupplierName, purchase.Date, purchase.Total,
		purchase.Paid, purchase.Status, purchase.PaymentStatus, purchase.Method, nullInt(purchase.UserID)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrDuplicateRef
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites a bill.
func (r *Repository) Update(ctx context.Context, purchase Purchase) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE purchases SET ref_no=$3, supplier_name=$4, date=$5, total=$6, paid=$7, status=$8, payment_status=$9, method=$10, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`,
		purchase.TenantID, purchase.ID, purchase.RefNo, purchase.SupplierName, purchase.Date,
		purchase.Total, purchase.Paid, purchase.Status, purchase.PaymentStatus, purchase.Method)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ErrDuplicateRef
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a bill.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a bill.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (Purchase, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return scanPurchase(row)
}

// List returns bills matching the filter, newest first.
func (r *Repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Purchase, error) {
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
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, purchase)
	}
	return out, rows.Err()
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
