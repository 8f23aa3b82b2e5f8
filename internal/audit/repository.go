package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort reads audit events.
type RepositoryPort interface {
	TimelineWindow(ctx context.Context, tenantID int64, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
}

// Repository queries the audit_logs table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TimelineWindow returns events newest first within the filter window.
func (r *Repository) TimelineWindow(ctx context.Context, tenantID int64, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		conds = append(conds, fmt.Sprintf("occurred_at < $%d", len(args)))
	}
	if filters.ActorID != 0 {
		args = append(args, filters.ActorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filters.Entity != "" {
		args = append(args, filters.Entity)
		conds = append(conds, fmt.Sprintf("entity = $%d", len(args)))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`SELECT occurred_at, actor_id, action, entity, entity_id, meta
FROM audit_logs WHERE %s ORDER BY occurred_at DESC, id DESC %s %s`,
		strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
