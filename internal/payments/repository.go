package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/journal"
)

// RepositoryPort abstracts the transactional document repository.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository locks and settles source documents inside one
// transaction. Journal exposes the same transaction to the journal
// module, so the settlement and its payment entry commit atomically.
type TxRepository interface {
	LockSale(ctx context.Context, tenantID, id int64) (Document, error)
	LockPurchase(ctx context.Context, tenantID, id int64) (Document, error)
	SettleSale(ctx context.Context, tenantID, id int64, paid decimal.Decimal, paymentStatus string) error
	SettlePurchase(ctx context.Context, tenantID, id int64, paid decimal.Decimal, paymentStatus string) error
	Journal() journal.TxRepository
}

// Repository settles documents against the sales and purchases tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a transaction. Documents are locked with
// SELECT FOR UPDATE, so concurrent payments against the same document
// serialize instead of reading stale balances.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("payments repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) Journal() journal.TxRepository {
	return journal.NewTxRepository(r.tx)
}

func (r *txRepository) LockSale(ctx context.Context, tenantID, id int64) (Document, error) {
	return r.lock(ctx, `SELECT id, invoice_no, total, paid FROM sales WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id)
}

func (r *txRepository) LockPurchase(ctx context.Context, tenantID, id int64) (Document, error) {
	return r.lock(ctx, `SELECT id, ref_no, total, paid FROM purchases WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id)
}

func (r *txRepository) lock(ctx context.Context, query string, tenantID, id int64) (Document, error) {
	var doc Document
	row := r.tx.QueryRow(ctx, query, tenantID, id)
	if err := row.Scan(&doc.ID, &doc.Ref, &doc.Total, &doc.Paid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *txRepository) SettleSale(ctx context.Context, tenantID, id int64, paid decimal.Decimal, paymentStatus string) error {
	return r.settle(ctx, `UPDATE sales SET paid=$3, payment_status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, id, paid, paymentStatus)
}

func (r *txRepository) SettlePurchase(ctx context.Context, tenantID, id int64, paid decimal.Decimal, paymentStatus string) error {
	return r.settle(ctx, `UPDATE purchases SET paid=$3, payment_status=$4, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, id, paid, paymentStatus)
}

func (r *txRepository) settle(ctx context.Context, query string, tenantID, id int64, paid decimal.Decimal, paymentStatus string) error {
	cmd, err := r.tx.Exec(ctx, query, tenantID, id, paid, paymentStatus)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
