package audit

import (
	"context"
	"errors"

	"github.com/sentra-pos/sentra-pos/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	exportLimit     = 10000
)

// Service reads the audit timeline.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the audit service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline fetches one page of audit events. One extra row is fetched
// beyond the page size to detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, scope shared.Scope, filters TimelineFilters) (Result, error) {
	if err := scope.Validate(); err != nil {
		return Result{}, err
	}
	if s.repo == nil {
		return Result{}, errors.New("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.TimelineWindow(ctx, scope.TenantID, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export fetches the full filtered timeline, capped to keep exports
// bounded.
func (s *Service) Export(ctx context.Context, scope shared.Scope, filters TimelineFilters) ([]TimelineRow, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.TimelineWindow(ctx, scope.TenantID, filters, exportLimit, 0)
}
