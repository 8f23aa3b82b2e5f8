package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIntegrity struct {
	drifts []TenantDrift
	err    error
}

func (f *fakeIntegrity) TenantDrifts(context.Context) ([]TenantDrift, error) {
	return f.drifts, f.err
}

type fakeCleanup struct {
	olderThan time.Duration
	calls     int
	err       error
}

func (f *fakeCleanup) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.calls++
	f.olderThan = olderThan
	return 3, f.err
}

type fakeMetrics struct {
	jobs   map[string]string
	drifts map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{jobs: map[string]string{}, drifts: map[string]float64{}}
}

func (f *fakeMetrics) ObserveJob(task, outcome string) { f.jobs[task] = outcome }

func (f *fakeMetrics) SetLedgerDrift(tenant string, drift float64) { f.drifts[tenant] = drift }

func TestLedgerIntegrityExportsDriftPerTenant(t *testing.T) {
	metrics := newFakeMetrics()
	handlers := NewHandlers(&fakeIntegrity{drifts: []TenantDrift{
		{TenantID: 1, Drift: decimal.Zero},
		{TenantID: 2, Drift: decimal.RequireFromString("-12.50")},
	}}, nil, metrics, slog.Default())

	require.NoError(t, handlers.HandleLedgerIntegrity(context.Background(), NewLedgerIntegrityTask()))

	assert.Equal(t, 0.0, metrics.drifts["1"])
	assert.Equal(t, 12.5, metrics.drifts["2"])
	assert.Equal(t, "success", metrics.jobs[TaskLedgerIntegrity])
}

func TestLedgerIntegrityPropagatesQueryFailure(t *testing.T) {
	metrics := newFakeMetrics()
	handlers := NewHandlers(&fakeIntegrity{err: errors.New("db down")}, nil, metrics, slog.Default())

	err := handlers.HandleLedgerIntegrity(context.Background(), NewLedgerIntegrityTask())
	require.Error(t, err)
	assert.Equal(t, "failure", metrics.jobs[TaskLedgerIntegrity])
}

func TestRetentionCleanupDefaultsWindow(t *testing.T) {
	cleanup := &fakeCleanup{}
	handlers := NewHandlers(nil, cleanup, newFakeMetrics(), slog.Default())

	task := asynq.NewTask(TaskRetentionCleanup, nil)
	require.NoError(t, handlers.HandleRetentionCleanup(context.Background(), task))

	assert.Equal(t, 1, cleanup.calls)
	assert.Equal(t, 48*time.Hour, cleanup.olderThan)
}

func TestRetentionCleanupHonoursPayload(t *testing.T) {
	cleanup := &fakeCleanup{}
	handlers := NewHandlers(nil, cleanup, newFakeMetrics(), slog.Default())

	task, err := NewRetentionCleanupTask(RetentionPayload{OlderThanHours: 12})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleRetentionCleanup(context.Background(), task))

	assert.Equal(t, 12*time.Hour, cleanup.olderThan)
}
