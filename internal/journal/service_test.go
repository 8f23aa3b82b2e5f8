package journal

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

var testScope = shared.Scope{TenantID: 1, UserID: 7}

type memoryJournalRepo struct {
	entries  map[int64]Entry
	links    map[string]SourceLink
	accounts map[int64]bool
	nextID   int64
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{
		entries:  map[int64]Entry{},
		links:    map[string]SourceLink{},
		accounts: map[int64]bool{10: true, 20: true, 30: true, 99: false},
	}
}

func linkKey(tenantID int64, module string, sourceID int64) string {
	return fmt.Sprintf("%d/%s/%d", tenantID, module, sourceID)
}

func (m *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryJournalRepo) InsertEntry(_ context.Context, entry Entry) (Entry, error) {
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *memoryJournalRepo) InsertLines(_ context.Context, entryID int64, lines []LineInput) error {
	entry, ok := m.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	for _, line := range lines {
		m.nextID++
		entry.Lines = append(entry.Lines, Line{
			ID:        m.nextID,
			EntryID:   entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			CreatedAt: time.Now(),
		})
	}
	m.entries[entryID] = entry
	return nil
}

func (m *memoryJournalRepo) DeleteLines(_ context.Context, entryID int64) error {
	entry, ok := m.entries[entryID]
	if !ok {
		return nil
	}
	entry.Lines = nil
	m.entries[entryID] = entry
	return nil
}

func (m *memoryJournalRepo) GetEntryWithLines(_ context.Context, tenantID, id int64) (Entry, error) {
	entry, ok := m.entries[id]
	if !ok || entry.TenantID != tenantID {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (m *memoryJournalRepo) UpdateHeader(_ context.Context, entry Entry) error {
	current, ok := m.entries[entry.ID]
	if !ok || current.TenantID != entry.TenantID {
		return ErrNotFound
	}
	entry.Lines = current.Lines
	entry.CreatedAt = current.CreatedAt
	m.entries[entry.ID] = entry
	return nil
}

func (m *memoryJournalRepo) UpdateStatus(_ context.Context, tenantID, id int64, status EntryStatus) error {
	entry, ok := m.entries[id]
	if !ok || entry.TenantID != tenantID {
		return ErrNotFound
	}
	entry.Status = status
	m.entries[id] = entry
	return nil
}

func (m *memoryJournalRepo) DeleteEntry(_ context.Context, tenantID, id int64) error {
	entry, ok := m.entries[id]
	if !ok || entry.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryJournalRepo) LinkSource(_ context.Context, link SourceLink) error {
	key := linkKey(link.TenantID, link.Module, link.SourceID)
	if _, ok := m.links[key]; ok {
		return ErrSourceConflict
	}
	m.links[key] = link
	return nil
}

func (m *memoryJournalRepo) GetSourceLink(_ context.Context, tenantID int64, module string, sourceID int64) (SourceLink, error) {
	link, ok := m.links[linkKey(tenantID, module, sourceID)]
	if !ok {
		return SourceLink{}, ErrNotFound
	}
	return link, nil
}

func (m *memoryJournalRepo) DeleteSourceLink(_ context.Context, tenantID int64, module string, sourceID int64) error {
	delete(m.links, linkKey(tenantID, module, sourceID))
	return nil
}

func (m *memoryJournalRepo) ActiveAccounts(_ context.Context, _ int64, ids []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range ids {
		if active, ok := m.accounts[id]; ok {
			out[id] = active
		}
	}
	return out, nil
}

func (m *memoryJournalRepo) ListEntries(_ context.Context, tenantID int64, _ ListFilter) ([]Entry, error) {
	var out []Entry
	for _, entry := range m.entries {
		if entry.TenantID == tenantID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context, int64) error {
	c.bumps++
	return nil
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balancedInput() EntryInput {
	return EntryInput{
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Type: EntryTypeGeneral,
		Lines: []LineInput{
			{AccountID: 10, Debit: amt("150.00")},
			{AccountID: 30, Credit: amt("150.00")},
		},
	}
}

func TestCreateEntryDefaultsToDraft(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	entry, err := svc.CreateEntry(context.Background(), testScope, balancedInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, entry.Status)
	assert.Len(t, entry.Lines, 2)

	debit, credit := entry.Totals()
	assert.True(t, debit.Equal(credit))
}

func TestCreateEntryRejectsUnbalanced(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Lines[1].Credit = amt("149.50")
	_, err := svc.CreateEntry(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.Empty(t, repo.entries)
}

func TestCreateEntryToleratesSubCentDrift(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Lines[1].Credit = amt("149.995")
	_, err := svc.CreateEntry(context.Background(), testScope, input)
	assert.NoError(t, err)
}

func TestCreateEntryDropsZeroLines(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Lines = append(input.Lines, LineInput{AccountID: 20})
	entry, err := svc.CreateEntry(context.Background(), testScope, input)
	require.NoError(t, err)
	assert.Len(t, entry.Lines, 2)
}

func TestCreateEntryRequiresTwoLines(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Lines = []LineInput{{AccountID: 10, Debit: amt("10.00")}, {AccountID: 20}}
	_, err := svc.CreateEntry(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrTooFewLines)
}

func TestCreateEntryRejectsUnknownAndInactiveAccounts(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Lines[0].AccountID = 555
	_, err := svc.CreateEntry(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrUnknownAccount)

	input = balancedInput()
	input.Lines[0].AccountID = 99
	_, err = svc.CreateEntry(context.Background(), testScope, input)
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestPostEntryIsOneWay(t *testing.T) {
	repo := newMemoryJournalRepo()
	cache := &countingCache{}
	svc := NewService(repo, nil, cache, nil)

	entry, err := svc.CreateEntry(context.Background(), testScope, balancedInput())
	require.NoError(t, err)

	posted, err := svc.PostEntry(context.Background(), testScope, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	assert.Equal(t, 1, cache.bumps)

	_, err = svc.PostEntry(context.Background(), testScope, entry.ID)
	assert.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestPostEntryRechecksAccounts(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	entry, err := svc.CreateEntry(context.Background(), testScope, balancedInput())
	require.NoError(t, err)

	repo.accounts[30] = false
	_, err = svc.PostEntry(context.Background(), testScope, entry.ID)
	assert.ErrorIs(t, err, ErrInactiveAccount)

	got, err := repo.GetEntryWithLines(context.Background(), testScope.TenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)

	repo.accounts[30] = true
	posted, err := svc.PostEntry(context.Background(), testScope, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
}

func TestPostedEntryAcceptsWholesaleEdit(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Status = StatusPosted
	entry, err := svc.CreateEntry(context.Background(), testScope, input)
	require.NoError(t, err)

	replacement := balancedInput()
	replacement.Status = StatusPosted
	replacement.Lines = []LineInput{
		{AccountID: 10, Debit: amt("80.00")},
		{AccountID: 20, Debit: amt("20.00")},
		{AccountID: 30, Credit: amt("100.00")},
	}
	updated, err := svc.UpdateEntry(context.Background(), testScope, entry.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, updated.Status)
	assert.Len(t, updated.Lines, 3)

	debit, _ := updated.Totals()
	assert.True(t, debit.Equal(amt("100.00")))
}

func TestPostedEntryRejectsDemotionAndDelete(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	input := balancedInput()
	input.Status = StatusPosted
	entry, err := svc.CreateEntry(context.Background(), testScope, input)
	require.NoError(t, err)

	demote := balancedInput()
	demote.Status = StatusDraft
	_, err = svc.UpdateEntry(context.Background(), testScope, entry.ID, demote)
	assert.ErrorIs(t, err, ErrPostedImmutable)

	err = svc.DeleteEntry(context.Background(), testScope, entry.ID)
	assert.ErrorIs(t, err, ErrPostedImmutable)
}

func TestUpdateEntryReplacesLinesWholesale(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	entry, err := svc.CreateEntry(context.Background(), testScope, balancedInput())
	require.NoError(t, err)

	replacement := EntryInput{
		Date: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		Type: EntryTypeAdjustment,
		Lines: []LineInput{
			{AccountID: 10, Debit: amt("75.00")},
			{AccountID: 20, Debit: amt("25.00")},
			{AccountID: 30, Credit: amt("100.00")},
		},
	}
	updated, err := svc.UpdateEntry(context.Background(), testScope, entry.ID, replacement)
	require.NoError(t, err)
	assert.Len(t, updated.Lines, 3)
	assert.Equal(t, EntryTypeAdjustment, updated.Type)

	debit, _ := updated.Totals()
	assert.True(t, debit.Equal(amt("100.00")))
}

func TestCreateEntryTxDefersSideEffectsToCaller(t *testing.T) {
	repo := newMemoryJournalRepo()
	cache := &countingCache{}
	svc := NewService(repo, nil, cache, nil)

	input := balancedInput()
	input.Status = StatusPosted
	entry, err := svc.CreateEntryTx(context.Background(), testScope, repo, input)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, entry.Status)
	assert.Len(t, entry.Lines, 2)
	assert.Zero(t, cache.bumps)

	svc.NotifyPosted(context.Background(), testScope.TenantID, "payments")
	assert.Equal(t, 1, cache.bumps)
}

func TestRecordSourcedReplacesExistingEntry(t *testing.T) {
	repo := newMemoryJournalRepo()
	cache := &countingCache{}
	svc := NewService(repo, nil, cache, nil)

	first, err := svc.RecordSourced(context.Background(), testScope, "sales", 42, balancedInput())
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, first.Status)

	input := balancedInput()
	input.Lines[0].Debit = amt("200.00")
	input.Lines[1].Credit = amt("200.00")
	second, err := svc.RecordSourced(context.Background(), testScope, "sales", 42, input)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = repo.GetEntryWithLines(context.Background(), testScope.TenantID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	link, err := repo.GetSourceLink(context.Background(), testScope.TenantID, "sales", 42)
	require.NoError(t, err)
	assert.Equal(t, second.ID, link.EntryID)
	assert.Equal(t, 2, cache.bumps)
}

func TestRemoveSourcedIsIdempotent(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	entry, err := svc.RecordSourced(context.Background(), testScope, "sales", 7, balancedInput())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSourced(context.Background(), testScope, "sales", 7))
	_, err = repo.GetEntryWithLines(context.Background(), testScope.TenantID, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// second removal is a no-op
	require.NoError(t, svc.RemoveSourced(context.Background(), testScope, "sales", 7))
}

func TestCreateEntryRequiresTenant(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.CreateEntry(context.Background(), shared.Scope{}, balancedInput())
	assert.ErrorIs(t, err, shared.ErrMissingTenant)
}
