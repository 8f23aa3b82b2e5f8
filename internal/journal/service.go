package journal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// AuditPort records journal mutations for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after postings change.
type CachePort interface {
	Bump(ctx context.Context, tenantID int64) error
}

// MetricsPort counts synthesized postings per source module.
type MetricsPort interface {
	ObservePosting(source string)
}

// Service orchestrates journal entry lifecycle and invariant checks.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	cache   CachePort
	metrics MetricsPort
	now     func() time.Time
}

// NewService constructs the journal service. Audit, cache and metrics
// ports may be nil in tests.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEntry validates and stores a new journal entry.
func (s *Service) CreateEntry(ctx context.Context, scope shared.Scope, input EntryInput) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	lines := input.NormalizeLines()
	var created Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.checkAccounts(ctx, tx, scope.TenantID, lines); err != nil {
			return err
		}
		entry, err := tx.InsertEntry(ctx, Entry{
			TenantID:    scope.TenantID,
			Date:        input.Date,
			Reference:   input.Reference,
			Description: input.Description,
			Type:        input.Type,
			Status:      input.Status,
			UserID:      scope.UserID,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, entry.ID, lines); err != nil {
			return err
		}
		created, err = tx.GetEntryWithLines(ctx, scope.TenantID, entry.ID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, scope, "journal.create", created.ID, map[string]any{"type": created.Type, "status": created.Status})
	if created.Status == StatusPosted {
		s.afterPosting(ctx, scope.TenantID, "manual")
	}
	return created, nil
}

// CreateEntryTx validates and stores an entry inside a transaction the
// caller owns, so the entry commits or rolls back with the caller's
// other writes. Audit and cache side effects are skipped here; callers
// invoke NotifyPosted once their transaction has committed.
func (s *Service) CreateEntryTx(ctx context.Context, scope shared.Scope, tx TxRepository, input EntryInput) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	lines := input.NormalizeLines()
	if err := s.checkAccounts(ctx, tx, scope.TenantID, lines); err != nil {
		return Entry{}, err
	}
	entry, err := tx.InsertEntry(ctx, Entry{
		TenantID:    scope.TenantID,
		Date:        input.Date,
		Reference:   input.Reference,
		Description: input.Description,
		Type:        input.Type,
		Status:      input.Status,
		UserID:      scope.UserID,
	})
	if err != nil {
		return Entry{}, err
	}
	if err := tx.InsertLines(ctx, entry.ID, lines); err != nil {
		return Entry{}, err
	}
	return tx.GetEntryWithLines(ctx, scope.TenantID, entry.ID)
}

// NotifyPosted runs the post-commit side effects for an entry created
// through CreateEntryTx after the caller's transaction has committed.
func (s *Service) NotifyPosted(ctx context.Context, tenantID int64, source string) {
	s.afterPosting(ctx, tenantID, source)
}

// UpdateEntry replaces an entry's header and lines wholesale. Posted
// entries accept the replacement but stay posted: demoting one back to
// draft is rejected.
func (s *Service) UpdateEntry(ctx context.Context, scope shared.Scope, id int64, input EntryInput) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	requested := input.Status
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	lines := input.NormalizeLines()
	var updated Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, scope.TenantID, id)
		if err != nil {
			return err
		}
		if current.Status == StatusPosted {
			if requested == StatusDraft {
				return ErrPostedImmutable
			}
			input.Status = StatusPosted
		}
		if err := s.checkAccounts(ctx, tx, scope.TenantID, lines); err != nil {
			return err
		}
		current.Date = input.Date
		current.Reference = input.Reference
		current.Description = input.Description
		current.Type = input.Type
		current.Status = input.Status
		if err := tx.UpdateHeader(ctx, current); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, id, lines); err != nil {
			return err
		}
		updated, err = tx.GetEntryWithLines(ctx, scope.TenantID, id)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, scope, "journal.update", id, map[string]any{"status": updated.Status})
	if updated.Status == StatusPosted {
		s.afterPosting(ctx, scope.TenantID, "manual")
	}
	return updated, nil
}

// PostEntry promotes a draft to posted. The transition is one-way. The
// draft is re-checked at posting time: accounts may have been
// deactivated since it was saved.
func (s *Service) PostEntry(ctx context.Context, scope shared.Scope, id int64) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	var posted Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, scope.TenantID, id)
		if err != nil {
			return err
		}
		if current.Status == StatusPosted {
			return ErrAlreadyPosted
		}
		recheck := EntryInput{
			Date:        current.Date,
			Reference:   current.Reference,
			Description: current.Description,
			Type:        current.Type,
			Status:      StatusPosted,
			Lines:       lineInputs(current.Lines),
		}
		if err := recheck.Validate(); err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tx, scope.TenantID, recheck.Lines); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, scope.TenantID, id, StatusPosted); err != nil {
			return err
		}
		current.Status = StatusPosted
		posted = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, scope, "journal.post", id, nil)
	s.afterPosting(ctx, scope.TenantID, "manual")
	return posted, nil
}

// DeleteEntry removes a draft entry and its lines.
func (s *Service) DeleteEntry(ctx context.Context, scope shared.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, scope.TenantID, id)
		if err != nil {
			return err
		}
		if current.Status == StatusPosted {
			return ErrPostedImmutable
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteEntry(ctx, scope.TenantID, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, scope, "journal.delete", id, nil)
	return nil
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	return s.repo.GetEntryWithLines(ctx, scope.TenantID, id)
}

// List returns entry headers matching the filter.
func (s *Service) List(ctx context.Context, scope shared.Scope, filter ListFilter) ([]Entry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, scope.TenantID, filter)
}

// RecordSourced posts an entry synthesized from a source document and
// links it. When the source is already linked the previous entry is
// replaced wholesale, so re-dispatched events converge on one entry.
func (s *Service) RecordSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64, input EntryInput) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	if module == "" || sourceID == 0 {
		return Entry{}, errors.New("journal: sourced entry requires module and source id")
	}
	input.Status = StatusPosted
	if err := input.Validate(); err != nil {
		return Entry{}, fmt.Errorf("journal: %s/%d: %w", module, sourceID, err)
	}
	lines := input.NormalizeLines()
	var created Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if link, err := tx.GetSourceLink(ctx, scope.TenantID, module, sourceID); err == nil {
			if err := tx.DeleteLines(ctx, link.EntryID); err != nil {
				return err
			}
			if err := tx.DeleteEntry(ctx, scope.TenantID, link.EntryID); err != nil {
				return err
			}
			if err := tx.DeleteSourceLink(ctx, scope.TenantID, module, sourceID); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.checkAccounts(ctx, tx, scope.TenantID, lines); err != nil {
			return err
		}
		entry, err := tx.InsertEntry(ctx, Entry{
			TenantID:    scope.TenantID,
			Date:        input.Date,
			Reference:   input.Reference,
			Description: input.Description,
			Type:        input.Type,
			Status:      StatusPosted,
			UserID:      scope.UserID,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, entry.ID, lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, SourceLink{TenantID: scope.TenantID, Module: module, SourceID: sourceID, EntryID: entry.ID}); err != nil {
			return err
		}
		created, err = tx.GetEntryWithLines(ctx, scope.TenantID, entry.ID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, scope, "journal.post", created.ID, map[string]any{"module": module, "source_id": sourceID})
	s.afterPosting(ctx, scope.TenantID, module)
	return created, nil
}

// RemoveSourced deletes the entry linked to a source document, if any.
// Missing links are a no-op so delete events stay idempotent.
func (s *Service) RemoveSourced(ctx context.Context, scope shared.Scope, module string, sourceID int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	removed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		link, err := tx.GetSourceLink(ctx, scope.TenantID, module, sourceID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, link.EntryID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, scope.TenantID, link.EntryID); err != nil {
			return err
		}
		if err := tx.DeleteSourceLink(ctx, scope.TenantID, module, sourceID); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.record(ctx, scope, "journal.delete", sourceID, map[string]any{"module": module})
		s.bumpCache(ctx, scope.TenantID)
	}
	return nil
}

func lineInputs(lines []Line) []LineInput {
	out := make([]LineInput, len(lines))
	for i, line := range lines {
		out[i] = LineInput{AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit}
	}
	return out
}

func (s *Service) checkAccounts(ctx context.Context, tx TxRepository, tenantID int64, lines []LineInput) error {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	active, err := tx.ActiveAccounts(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		isActive, ok := active[id]
		if !ok {
			return fmt.Errorf("%w: account %d", ErrUnknownAccount, id)
		}
		if !isActive {
			return fmt.Errorf("%w: account %d", ErrInactiveAccount, id)
		}
	}
	return nil
}

func (s *Service) afterPosting(ctx context.Context, tenantID int64, source string) {
	if s.metrics != nil {
		s.metrics.ObservePosting(source)
	}
	s.bumpCache(ctx, tenantID)
}

func (s *Service) bumpCache(ctx context.Context, tenantID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx, tenantID)
}

func (s *Service) record(ctx context.Context, scope shared.Scope, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: scope.TenantID,
		ActorID:  scope.UserID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
