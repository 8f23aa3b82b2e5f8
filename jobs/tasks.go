package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity recomputes the debit/credit invariant per tenant.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskRetentionCleanup purges expired idempotency keys.
	TaskRetentionCleanup = "retention:cleanup"
)

// TenantDrift is the posted debit minus credit total for one tenant.
// A non-zero value means the ledger invariant is broken.
type TenantDrift struct {
	TenantID int64
	Drift    decimal.Decimal
}

// IntegrityPort sums posted lines per tenant.
type IntegrityPort interface {
	TenantDrifts(ctx context.Context) ([]TenantDrift, error)
}

// CleanupPort purges expired idempotency keys.
type CleanupPort interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MetricsPort exports job outcomes and ledger drift.
type MetricsPort interface {
	ObserveJob(task, outcome string)
	SetLedgerDrift(tenant string, drift float64)
}

// RetentionPayload carries the cleanup window.
type RetentionPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewLedgerIntegrityTask constructs the integrity check task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewRetentionCleanupTask constructs the cleanup task.
func NewRetentionCleanupTask(payload RetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRetentionCleanup, data), nil
}

// Handlers processes background tasks.
type Handlers struct {
	integrity IntegrityPort
	cleanup   CleanupPort
	metrics   MetricsPort
	logger    *slog.Logger
}

// NewHandlers constructs the task handlers. Metrics may be nil in tests.
func NewHandlers(integrity IntegrityPort, cleanup CleanupPort, metrics MetricsPort, logger *slog.Logger) *Handlers {
	return &Handlers{integrity: integrity, cleanup: cleanup, metrics: metrics, logger: logger}
}

// HandleLedgerIntegrity verifies that posted debits equal posted
// credits for every tenant and exports the drift as a gauge.
func (h *Handlers) HandleLedgerIntegrity(ctx context.Context, _ *asynq.Task) error {
	drifts, err := h.integrity.TenantDrifts(ctx)
	if err != nil {
		h.observe(TaskLedgerIntegrity, "failure")
		return err
	}
	broken := 0
	for _, d := range drifts {
		tenant := strconv.FormatInt(d.TenantID, 10)
		value, _ := d.Drift.Abs().Float64()
		if h.metrics != nil {
			h.metrics.SetLedgerDrift(tenant, value)
		}
		if !d.Drift.IsZero() {
			broken++
			h.logger.Error("ledger integrity drift",
				slog.Int64("tenant_id", d.TenantID),
				slog.String("drift", d.Drift.StringFixed(2)))
		}
	}
	h.logger.Info("ledger integrity check finished",
		slog.Int("tenants", len(drifts)),
		slog.Int("broken", broken))
	h.observe(TaskLedgerIntegrity, "success")
	return nil
}

// HandleRetentionCleanup removes idempotency keys past the window.
func (h *Handlers) HandleRetentionCleanup(ctx context.Context, t *asynq.Task) error {
	var payload RetentionPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.OlderThanHours <= 0 {
		payload.OlderThanHours = 48
	}
	purged, err := h.cleanup.Cleanup(ctx, time.Duration(payload.OlderThanHours)*time.Hour)
	if err != nil {
		h.observe(TaskRetentionCleanup, "failure")
		return err
	}
	h.logger.Info("retention cleanup finished",
		slog.Int("older_than_hours", payload.OlderThanHours),
		slog.Int64("purged", purged))
	h.observe(TaskRetentionCleanup, "success")
	return nil
}

func (h *Handlers) observe(task, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveJob(task, outcome)
	}
}
