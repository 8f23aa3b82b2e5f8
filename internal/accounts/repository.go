package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for the chart of accounts.
type Repository interface {
	Create(ctx context.Context, account Account) (int64, error)
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, tenantID, id int64) error
	Get(ctx context.Context, tenantID, id int64) (Account, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (Account, error)
	List(ctx context.Context, tenantID int64, activeOnly bool) ([]Account, error)
	CountLines(ctx context.Context, tenantID, accountID int64) (int64, error)
	ResolveSystemAccount(ctx context.Context, tenantID int64, key SystemAccountKey) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, tenant_id, code, name, type, subtype, description, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.Description, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Create(ctx context.Context, account Account) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name, type, subtype, description, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		account.TenantID, account.Code, account.Name, account.Type, account.Subtype, account.Description, account.IsActive).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, account Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET name=$3, type=$4, subtype=$5, description=$6, is_active=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`,
		account.TenantID, account.ID, account.Name, account.Type, account.Subtype, account.Description, account.IsActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return ErrAccountInUse
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) GetByCode(ctx context.Context, tenantID int64, code string) (Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND code=$2`, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, activeOnly bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id=$1 ORDER BY code`
	if activeOnly {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id=$1 AND is_active ORDER BY code`
	}
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *repository) CountLines(ctx context.Context, tenantID, accountID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entry_items i
JOIN journal_entries e ON e.id = i.entry_id
WHERE e.tenant_id=$1 AND i.account_id=$2`, tenantID, accountID).Scan(&count)
	return count, err
}

func (r *repository) ResolveSystemAccount(ctx context.Context, tenantID int64, key SystemAccountKey) (Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT a.id, a.tenant_id, a.code, a.name, a.type, a.subtype, a.description, a.is_active, a.created_at, a.updated_at
FROM system_accounts s
JOIN accounts a ON a.id = s.account_id
WHERE s.tenant_id=$1 AND s.key=$2`, tenantID, string(key)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrSystemAccountNotConfigured
		}
		return Account{}, err
	}
	return account, nil
}
