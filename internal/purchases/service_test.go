package purchases

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

type memoryPurchaseRepo struct {
	rows   map[int64]Purchase
	nextID int64
}

func newMemoryPurchaseRepo() *memoryPurchaseRepo {
	return &memoryPurchaseRepo{rows: map[int64]Purchase{}}
}

func (m *memoryPurchaseRepo) Create(_ context.Context, purchase Purchase) (int64, error) {
	for _, existing := range m.rows {
		if existing.TenantID == purchase.TenantID && existing.RefNo == purchase.RefNo {
			return 0, ErrDuplicateRef
		}
	}
	m.nextID++
	purchase.ID = m.nextID
	purchase.CreatedAt = time.Now()
	m.rows[purchase.ID] = purchase
	return purchase.ID, nil
}

func (m *memoryPurchaseRepo) Update(_ context.Context, purchase Purchase) error {
	current, ok := m.rows[purchase.ID]
	if !ok {
		return ErrNotFound
	}
	purchase.CreatedAt = current.CreatedAt
	m.rows[purchase.ID] = purchase
	return nil
}

func (m *memoryPurchaseRepo) Delete(_ context.Context, _ int64, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryPurchaseRepo) Get(_ context.Context, tenantID, id int64) (Purchase, error) {
	purchase, ok := m.rows[id]
	if !ok || purchase.TenantID != tenantID {
		return Purchase{}, ErrNotFound
	}
	return purchase, nil
}

func (m *memoryPurchaseRepo) List(_ context.Context, tenantID int64, _ ListFilter) ([]Purchase, error) {
	var out []Purchase
	for _, purchase := range m.rows {
		if purchase.TenantID == tenantID {
			out = append(out, purchase)
		}
	}
	return out, nil
}

type recordingHooks struct {
	saved   []Purchase
	deleted []int64
}

func (r *recordingHooks) PurchaseSaved(_ context.Context, _ shared.Scope, purchase Purchase) error {
	r.saved = append(r.saved, purchase)
	return nil
}

func (r *recordingHooks) PurchaseDeleted(_ context.Context, _ shared.Scope, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func purchaseInput() Input {
	return Input{
		RefNo:        "PO-0001",
		SupplierName: "Acme Wholesale",
		Date:         time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		Total:        amt("800.00"),
		Paid:         amt("300.00"),
		Method:       "bank",
	}
}

func TestCreateDefaultsToReceivedAndDispatches(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	purchase, err := svc.Create(context.Background(), testScope, purchaseInput())
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, purchase.Status)
	assert.Equal(t, PaymentPartial, purchase.PaymentStatus)
	assert.True(t, purchase.Outstanding().Equal(amt("500.00")))
	require.Len(t, hooks.saved, 1)
}

func TestCreateRejectsOverpayment(t *testing.T) {
	svc := NewService(newMemoryPurchaseRepo(), nil, nil)

	input := purchaseInput()
	input.Paid = amt("900.00")
	_, err := svc.Create(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrOverpaid)
}

func TestUpdateRedispatches(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	purchase, err := svc.Create(context.Background(), testScope, purchaseInput())
	require.NoError(t, err)

	input := purchaseInput()
	input.Status = StatusCancelled
	updated, err := svc.Update(context.Background(), testScope, purchase.ID, input)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	require.Len(t, hooks.saved, 2)
}

func TestDeleteDispatchesDeleted(t *testing.T) {
	repo := newMemoryPurchaseRepo()
	hooks := &recordingHooks{}
	svc := NewService(repo, hooks, nil)

	purchase, err := svc.Create(context.Background(), testScope, purchaseInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), testScope, purchase.ID))
	assert.Equal(t, []int64{purchase.ID}, hooks.deleted)
}
