package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IntegrityRepository sums posted journal lines straight from the
// database, independent of the journal service, so the check catches
// corruption the application layer cannot see.
type IntegrityRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrityRepository constructs IntegrityRepository.
func NewIntegrityRepository(pool *pgxpool.Pool) *IntegrityRepository {
	return &IntegrityRepository{pool: pool}
}

// TenantDrifts returns posted debit minus credit per tenant.
func (r *IntegrityRepository) TenantDrifts(ctx context.Context) ([]TenantDrift, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.tenant_id, COALESCE(SUM(i.debit),0) - COALESCE(SUM(i.credit),0)
FROM journal_entries e
JOIN journal_entry_items i ON i.entry_id = e.id
WHERE e.status = 'posted'
GROUP BY e.tenant_id
ORDER BY e.tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TenantDrift
	for rows.Next() {
		var d TenantDrift
		if err := rows.Scan(&d.TenantID, &d.Drift); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
