package journal

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

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntryWithLines(ctx context.Context, tenantID, id int64) (Entry, error)
	ListEntries(ctx context.Context, tenantID int64, filter ListFilter) ([]Entry, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	DeleteLines(ctx context.Context, entryID int64) error
	GetEntryWithLines(ctx context.Context, tenantID, id int64) (Entry, error)
	UpdateHeader(ctx context.Context, entry Entry) error
	UpdateStatus(ctx context.Context, tenantID, id int64, status EntryStatus) error
	DeleteEntry(ctx context.Context, tenantID, id int64) error
	LinkSource(ctx context.Context, link SourceLink) error
	GetSourceLink(ctx context.Context, tenantID int64, module string, sourceID int64) (SourceLink, error)
	DeleteSourceLink(ctx context.Context, tenantID int64, module string, sourceID int64) error
	ActiveAccounts(ctx context.Context, tenantID int64, ids []int64) (map[int64]bool, error)
}

// ListFilter narrows entry listings.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Status EntryStatus
	Type   EntryType
	Limit  int
	Offset int
}

// Repository persists journal entities.
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

// NewTxRepository wraps a transaction another module already holds, so
// that module's rows and the journal rows commit or roll back together.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
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

const (
	entryColumns = `id, tenant_id, date, reference, description, type, status, user_id, created_at, updated_at`
	itemColumns  = `id, entry_id, account_id, debit, credit, created_at`
)

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (tenant_id, date, reference, description, type, status, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		entry.TenantID, entry.Date, entry.Reference, entry.Description, entry.Type, entry.Status, nullInt(entry.UserID))
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_items (entry_id, account_id, debit, credit)
VALUES ($1,$2,$3,$4)`, entryID, line.AccountID, line.Debit, line.Credit); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_items WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, tenantID, id int64) (Entry, error) {
	return getEntryWithLines(ctx, r.tx, tenantID, id)
}

func (r *txRepository) UpdateHeader(ctx context.Context, entry Entry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$3, reference=$4, description=$5, type=$6, status=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, entry.TenantID, entry.ID, entry.Date, entry.Reference, entry.Description, entry.Type, entry.Status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, tenantID, id int64, status EntryStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, link SourceLink) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (tenant_id, module, source_id, entry_id) VALUES ($1,$2,$3,$4)`,
		link.TenantID, link.Module, link.SourceID, link.EntryID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return ErrSourceConflict
		}
		return err
	}
	return nil
}

func (r *txRepository) GetSourceLink(ctx context.Context, tenantID int64, module string, sourceID int64) (SourceLink, error) {
	var link SourceLink
	err := r.tx.QueryRow(ctx, `SELECT tenant_id, module, source_id, entry_id FROM source_links
WHERE tenant_id=$1 AND module=$2 AND source_id=$3`, tenantID, module, sourceID).
		Scan(&link.TenantID, &link.Module, &link.SourceID, &link.EntryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SourceLink{}, ErrNotFound
		}
		return SourceLink{}, err
	}
	return link, nil
}

func (r *txRepository) DeleteSourceLink(ctx context.Context, tenantID int64, module string, sourceID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM source_links WHERE tenant_id=$1 AND module=$2 AND source_id=$3`, tenantID, module, sourceID)
	return err
}

func (r *txRepository) ActiveAccounts(ctx context.Context, tenantID int64, ids []int64) (map[int64]bool, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, is_active FROM accounts WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		var active bool
		if err := rows.Scan(&id, &active); err != nil {
			return nil, err
		}
		out[id] = active
	}
	return out, rows.Err()
}

// GetEntryWithLines loads an entry outside a transaction.
func (r *Repository) GetEntryWithLines(ctx context.Context, tenantID, id int64) (Entry, error) {
	return getEntryWithLines(ctx, r.pool, tenantID, id)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntryWithLines(ctx context.Context, q queryer, tenantID, id int64) (Entry, error) {
	var entry Entry
	err := q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&entry.ID, &entry.TenantID, &entry.Date, &entry.Reference, &entry.Description, &entry.Type, &entry.Status, &entry.UserID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM journal_entry_items WHERE entry_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Entry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.CreatedAt); err != nil {
			return Entry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListEntries returns entry headers matching the filter, newest first.
func (r *Repository) ListEntries(ctx context.Context, tenantID int64, filter ListFilter) ([]Entry, error) {
	var (
		conds = []string{"tenant_id=$1"}
		args  = []any{tenantID}
	)
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
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.Date, &entry.Reference, &entry.Description, &entry.Type, &entry.Status, &entry.UserID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
