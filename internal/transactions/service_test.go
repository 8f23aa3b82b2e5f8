package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

const (
	cashAccountID     = int64(100)
	bankAccountID     = int64(101)
	categoryAccountID = int64(200)
)

type memoryTxnRepo struct {
	rows   map[int64]Transaction
	nextID int64
}

func newMemoryTxnRepo() *memoryTxnRepo {
	return &memoryTxnRepo{rows: map[int64]Transaction{}}
}

func (m *memoryTxnRepo) Create(_ context.Context, txn Transaction) (int64, error) {
	for _, existing := range m.rows {
		if txn.SourceType != "" && existing.SourceType == txn.SourceType && existing.SourceID == txn.SourceID {
			return 0, ErrDuplicateSource
		}
	}
	m.nextID++
	txn.ID = m.nextID
	txn.CreatedAt = time.Now()
	m.rows[txn.ID] = txn
	return txn.ID, nil
}

func (m *memoryTxnRepo) Update(_ context.Context, txn Transaction) error {
	current, ok := m.rows[txn.ID]
	if !ok {
		return ErrNotFound
	}
	txn.CreatedAt = current.CreatedAt
	m.rows[txn.ID] = txn
	return nil
}

func (m *memoryTxnRepo) Delete(_ context.Context, _ int64, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryTxnRepo) Get(_ context.Context, tenantID, id int64) (Transaction, error) {
	txn, ok := m.rows[id]
	if !ok || txn.TenantID != tenantID {
		return Transaction{}, ErrNotFound
	}
	return txn, nil
}

func (m *memoryTxnRepo) GetBySource(_ context.Context, tenantID int64, sourceType string, sourceID int64) (Transaction, error) {
	for _, txn := range m.rows {
		if txn.TenantID == tenantID && txn.SourceType == sourceType && txn.SourceID == sourceID {
			return txn, nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (m *memoryTxnRepo) UpsertBySource(ctx context.Context, txn Transaction) (int64, error) {
	for id, existing := range m.rows {
		if existing.TenantID == txn.TenantID && existing.SourceType == txn.SourceType && existing.SourceID == txn.SourceID {
			txn.ID = id
			txn.CreatedAt = existing.CreatedAt
			m.rows[id] = txn
			return id, nil
		}
	}
	return m.Create(ctx, txn)
}

func (m *memoryTxnRepo) DeleteBySource(_ context.Context, tenantID int64, sourceType string, sourceID int64) error {
	for id, txn := range m.rows {
		if txn.TenantID == tenantID && txn.SourceType == sourceType && txn.SourceID == sourceID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memoryTxnRepo) List(_ context.Context, tenantID int64, _ ListFilter) ([]Transaction, error) {
	var out []Transaction
	for _, txn := range m.rows {
		if txn.TenantID == tenantID {
			out = append(out, txn)
		}
	}
	return out, nil
}

type recordingJournal struct {
	entries map[int64]journal.EntryInput
	removed []int64
}

func newRecordingJournal() *recordingJournal {
	return &recordingJournal{entries: map[int64]journal.EntryInput{}}
}

func (r *recordingJournal) RecordSourced(_ context.Context, _ shared.Scope, _ string, sourceID int64, input journal.EntryInput) (journal.Entry, error) {
	r.entries[sourceID] = input
	return journal.Entry{ID: sourceID + 1000, Status: journal.StatusPosted}, nil
}

func (r *recordingJournal) RemoveSourced(_ context.Context, _ shared.Scope, _ string, sourceID int64) error {
	r.removed = append(r.removed, sourceID)
	delete(r.entries, sourceID)
	return nil
}

type staticResolver struct{}

func (staticResolver) ResolveSystemAccount(_ context.Context, _ shared.Scope, key accounts.SystemAccountKey) (accounts.Account, error) {
	switch key {
	case accounts.SystemAccountCash:
		return accounts.Account{ID: cashAccountID}, nil
	case accounts.SystemAccountBank:
		return accounts.Account{ID: bankAccountID}, nil
	}
	return accounts.Account{}, accounts.ErrSystemAccountNotConfigured
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func incomeInput() CreateInput {
	return CreateInput{
		Date:        time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
		Type:        TypeIncome,
		Method:      MethodCash,
		Amount:      amt("250.00"),
		Description: "market stall takings",
		CategoryID:  categoryAccountID,
	}
}

func TestCreateIncomePostsCashDebit(t *testing.T) {
	repo := newMemoryTxnRepo()
	jrnl := newRecordingJournal()
	svc := NewService(repo, jrnl, staticResolver{}, nil)

	txn, err := svc.Create(context.Background(), testScope, incomeInput())
	require.NoError(t, err)

	input, ok := jrnl.entries[txn.ID]
	require.True(t, ok)
	assert.Equal(t, journal.EntryTypeCashIn, input.Type)
	require.Len(t, input.Lines, 2)
	assert.Equal(t, cashAccountID, input.Lines[0].AccountID)
	assert.True(t, input.Lines[0].Debit.Equal(amt("250.00")))
	assert.Equal(t, categoryAccountID, input.Lines[1].AccountID)
	assert.True(t, input.Lines[1].Credit.Equal(amt("250.00")))
}

func TestCreateBankExpensePostsBankCredit(t *testing.T) {
	repo := newMemoryTxnRepo()
	jrnl := newRecordingJournal()
	svc := NewService(repo, jrnl, staticResolver{}, nil)

	input := incomeInput()
	input.Type = TypeExpense
	input.Method = MethodBank
	txn, err := svc.Create(context.Background(), testScope, input)
	require.NoError(t, err)

	posted := jrnl.entries[txn.ID]
	assert.Equal(t, journal.EntryTypeBankOut, posted.Type)
	assert.Equal(t, categoryAccountID, posted.Lines[0].AccountID)
	assert.True(t, posted.Lines[0].Debit.Equal(amt("250.00")))
	assert.Equal(t, bankAccountID, posted.Lines[1].AccountID)
	assert.True(t, posted.Lines[1].Credit.Equal(amt("250.00")))
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemoryTxnRepo(), newRecordingJournal(), staticResolver{}, nil)

	input := incomeInput()
	input.Amount = decimal.Zero
	_, err := svc.Create(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSourcedRowRejectsManualEdit(t *testing.T) {
	repo := newMemoryTxnRepo()
	svc := NewService(repo, newRecordingJournal(), staticResolver{}, nil)

	id, err := repo.Create(context.Background(), Transaction{
		TenantID:   testScope.TenantID,
		Date:       time.Now(),
		Type:       TypeIncome,
		Method:     MethodCash,
		Amount:     amt("99.00"),
		SourceType: "sales",
		SourceID:   5,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), testScope, id, incomeInput())
	assert.ErrorIs(t, err, ErrSourceImmutable)

	err = svc.Delete(context.Background(), testScope, id)
	assert.ErrorIs(t, err, ErrSourceImmutable)
}

func TestDeleteRetractsJournalEntry(t *testing.T) {
	repo := newMemoryTxnRepo()
	jrnl := newRecordingJournal()
	svc := NewService(repo, jrnl, staticResolver{}, nil)

	txn, err := svc.Create(context.Background(), testScope, incomeInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), testScope, txn.ID))
	assert.Contains(t, jrnl.removed, txn.ID)
	_, err = repo.Get(context.Background(), testScope.TenantID, txn.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
