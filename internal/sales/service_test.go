package sales

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

type memorySalesRepo struct {
	rows   map[int64]Sale
	nextID int64
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{rows: map[int64]Sale{}}
}

func (m *memorySalesRepo) Create(_ context.Context, sale Sale) (int64, error) {
	for _, existing := range m.rows {
		if existing.TenantID == sale.TenantID && existing.InvoiceNo == sale.InvoiceNo {
			return 0, ErrDuplicateInvoice
		}
	}
	m.nextID++
	sale.ID = m.nextID
	sale.CreatedAt = time.Now()
	m.rows[sale.ID] = sale
	return sale.ID, nil
}

func (m *memorySalesRepo) Update(_ context.Context, sale Sale) error {
	current, ok := m.rows[sale.ID]
	if !ok {
		return ErrNotFound
	}
	sale.CreatedAt = current.CreatedAt
	m.rows[sale.ID] = sale
	return nil
}

func (m *memorySalesRepo) Delete(_ context.Context, _ int64, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memorySalesRepo) Get(_ context.Context, tenantID, id int64) (Sale, error) {
	sale, ok := m.rows[id]
	if !ok || sale.TenantID != tenantID {
		return Sale{}, ErrNotFound
	}
	return sale, nil
}

func (m *memorySalesRepo) List(_ context.Context, tenantID int64, _ ListFilter) ([]Sale, error) {
	var out []Sale
	for _, sale := range m.rows {
		if sale.TenantID == tenantID {
			out = append(out, sale)
		}
	}
	return out, nil
}

type recordingHooks struct {
	saved   []Sale
	deleted []int64
}

func (r *recordingHooks) SaleSaved(_ context.Context, _ shared.Scope, sale Sale) error {
	r.saved = append(r.saved, sale)
	return nil
}

func (r *recordingHooks) SaleDeleted(_ context.Context, _ shared.Scope, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleInput() Input {
	return Input{
		InvoiceNo:    "INV-0001",
		CustomerName: "Walk-in",
		Date:         time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Total:        amt("500.00"),
		Paid:         amt("500.00"),
		Method:       "cash",
	}
}

func TestCreateDispatchesSavedEvent(t *testing.T) {
	repo := newMemorySalesRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	sale, err := svc.Create(context.Background(), testScope, saleInput())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sale.Status)
	assert.Equal(t, PaymentPaid, sale.PaymentStatus)
	require.Len(t, hooks.saved, 1)
	assert.Equal(t, sale.ID, hooks.saved[0].ID)
}

func TestCreateDerivesPaymentStatus(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, nil, nil)

	input := saleInput()
	input.Paid = amt("200.00")
	sale, err := svc.Create(context.Background(), testScope, input)
	require.NoError(t, err)
	assert.Equal(t, PaymentPartial, sale.PaymentStatus)
	assert.True(t, sale.Outstanding().Equal(amt("300.00")))

	input.InvoiceNo = "INV-0002"
	input.Paid = decimal.Zero
	sale, err = svc.Create(context.Background(), testScope, input)
	require.NoError(t, err)
	assert.Equal(t, PaymentUnpaid, sale.PaymentStatus)
}

func TestCreateAcceptsFullStatusLifecycle(t *testing.T) {
	repo := newMemorySalesRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	input := saleInput()
	input.Status = StatusPending
	input.Paid = decimal.Zero
	sale, err := svc.Create(context.Background(), testScope, input)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sale.Status)

	input.Status = StatusCompleted
	input.Paid = input.Total
	_, err = svc.Update(context.Background(), testScope, sale.ID, input)
	require.NoError(t, err)

	input.Status = StatusCancelled
	updated, err := svc.Update(context.Background(), testScope, sale.ID, input)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	input.Status = "voided"
	_, err = svc.Update(context.Background(), testScope, sale.ID, input)
	assert.Error(t, err)
}

func TestCreateRejectsOverpayment(t *testing.T) {
	svc := NewService(newMemorySalesRepo(), nil, nil)

	input := saleInput()
	input.Paid = amt("600.00")
	_, err := svc.Create(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrOverpaid)
}

func TestCreateRejectsDuplicateInvoice(t *testing.T) {
	svc := NewService(newMemorySalesRepo(), nil, nil)

	_, err := svc.Create(context.Background(), testScope, saleInput())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), testScope, saleInput())
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
}

func TestUpdateRedispatchesSavedEvent(t *testing.T) {
	repo := newMemorySalesRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	sale, err := svc.Create(context.Background(), testScope, saleInput())
	require.NoError(t, err)

	input := saleInput()
	input.Status = StatusRefunded
	updated, err := svc.Update(context.Background(), testScope, sale.ID, input)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, updated.Status)
	require.Len(t, hooks.saved, 2)
	assert.Equal(t, StatusRefunded, hooks.saved[1].Status)
}

func TestDeleteDispatchesDeletedEvent(t *testing.T) {
	repo := newMemorySalesRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	sale, err := svc.Create(context.Background(), testScope, saleInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), testScope, sale.ID))
	assert.Equal(t, []int64{sale.ID}, hooks.deleted)
	_, err = svc.Get(context.Background(), testScope, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
