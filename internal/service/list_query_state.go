package service

import (
	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

// ListQueryState holds pagination and sort for one list screen. It is not
// safe for concurrent use; ListController serializes access.
type ListQueryState struct {
	page     int
	pageSize int
	sort     models.Sort

	initialPageSize int
	initialSort     models.Sort
}

// NewListQueryState starts at page 1 with the given page size and sort.
func NewListQueryState(pageSize int, sort models.Sort) *ListQueryState {
	if pageSize < 1 {
		pageSize = 10
	}
	return &ListQueryState{
		page:            1,
		pageSize:        pageSize,
		sort:            sort,
		initialPageSize: pageSize,
		initialSort:     sort,
	}
}

// Page returns the current page number.
func (s *ListQueryState) Page() int { return s.page }

// PageSize returns the current page size.
func (s *ListQueryState) PageSize() int { return s.pageSize }

// Sort returns the current sort.
func (s *ListQueryState) Sort() models.Sort { return s.sort }

// SetPage moves to page n without touching anything else.
func (s *ListQueryState) SetPage(n int) error {
	if n < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "La página debe ser mayor o igual a 1")
	}
	s.page = n
	return nil
}

// SetPageSize changes the page size and returns to page 1.
func (s *ListQueryState) SetPageSize(n int) error {
	if n < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "El tamaño de página debe ser mayor a 0")
	}
	s.pageSize = n
	s.page = 1
	return nil
}

// SetSort records the column and direction and returns to page 1. The caller
// decides the direction.
func (s *ListQueryState) SetSort(column string, isDescending bool) {
	direction := models.SortAscending
	if isDescending {
		direction = models.SortDescending
	}
	s.sort = models.Sort{Column: column, Direction: direction}
	s.page = 1
}

// Reset restores the construction-time page, page size and sort.
func (s *ListQueryState) Reset() {
	s.page = 1
	s.pageSize = s.initialPageSize
	s.sort = s.initialSort
}

// Query renders the state and filters into a wire query.
func (s *ListQueryState) Query(mapper ColumnFieldMapper, filters models.Filters) models.ListQuery {
	q := models.ListQuery{
		PageNumber: s.page,
		PageSize:   s.pageSize,
		Filters:    filters.Clone(),
	}
	if s.sort.Column != "" {
		desc := s.sort.IsDescending()
		q.SortBy = mapper.Field(s.sort.Column)
		q.IsDescending = &desc
	}
	return q
}
