package sales

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

// RepositoryPort persists sales invoices.
type RepositoryPort interface {
	Create(ctx context.Context, sale Sale) (int64, error)
	Update(ctx context.Context, sale Sale) error
	Delete(ctx context.Context, tenantID, id int64) error
	Get(ctx context.Context, tenantID, id int64) (Sale, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Sale, error)
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	Status        SaleStatus
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// Repository is the Postgres invoice store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const saleColumns = `id, tenant_id, invoice_no, customer_name, date, total, paid, status, payment_status, method, user_id, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var sale Sale
	var userID *int64
	err := row.Scan(&sale.ID, &sale.TenantID, &sale.InvoiceNo, &sale.CustomerName, &sale.Date,
		&sale.Total, &sale.Paid, &sale.Status, &sale.PaymentStatus, &sale.Method, &userID,
		&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	if userID != nil {
		sale.UserID = *userID
	}
	return sale, nil
}

// Create inserts an invoice. Duplicate invoice numbers map to
// ErrDuplicateInvoice.
func (r *Repository) Create(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO sales (tenant_id, invoice_no, customer_name, date, total, paid, status, payment_status, method, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		sale.TenantID, sale.InvoiceNo, sale.CustomerName, sale.Date, sale.Total, sale.Paid,
		sale.Status, sale.PaymentStatus, sale.Method, nullInt(sale.UserID)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrDuplicateInvoice
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites an invoice.
func (r *Repository) Update(ctx context.Context, sale Sale) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE sales SET invoice_no=$3, customer_name=$4, date=$5, total=$6, paid=$7, status=$8, payment_status=$9, method=$10, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`,
		sale.TenantID, sale.ID, sale.InvoiceNo, sale.CustomerName, sale.Date, sale.Total,
		sale.Paid, sale.Status, sale.PaymentStatus, sale.Method)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ErrDuplicateInvoice
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an invoice.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads an invoice.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return scanSale(row)
}

// List returns invoices matching the filter, newest first.
func (r *Repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Sale, error) {
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
	query := `SELECT ` + saleColumns + ` FROM sales WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
