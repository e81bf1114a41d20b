package models

import (
	"net/url"
	"sort"
	"strconv"
)

// SortDirection is the ordering requested for a list column.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// Sort records the column a list screen is sorted by. An empty Column means
// the server default order.
type Sort struct {
	Column    string        `json:"column,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// IsDescending reports whether the sort is descending.
func (s Sort) IsDescending() bool {
	return s.Direction == SortDescending
}

// Filters maps a filter name to its scalar wire value.
type Filters map[string]string

// Clone returns an independent copy of the filters.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ListQuery is the combined pagination, sort and filter request sent to a
// list endpoint.
type ListQuery struct {
	PageNumber   int     `json:"pageNumber"`
	PageSize     int     `json:"pageSize"`
	SortBy       string  `json:"sortBy,omitempty"`
	IsDescending *bool   `json:"isDescending,omitempty"`
	Filters      Filters `json:"filters,omitempty"`
}

// Values serializes the query into query-string parameters. Empty filter
// values are omitted.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	values.Set("pageNumber", strconv.Itoa(q.PageNumber))
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
		if q.IsDescending != nil {
			values.Set("isDescending", strconv.FormatBool(*q.IsDescending))
		}
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := q.Filters[k]; v != "" {
			values.Set(k, v)
		}
	}
	return values
}

// ListResult is one page of a list endpoint response. Results are replaced,
// never mutated.
type ListResult[T any] struct {
	Items            []T                `json:"items"`
	TotalCount       int                `json:"totalCount"`
	CompleteTotal    *int               `json:"completeTotal,omitempty"`
	CurrentPageTotal int                `json:"currentPageTotal"`
	Page             int                `json:"page"`
	PageSize         int                `json:"pageSize"`
	AggregateStats   map[string]float64 `json:"aggregateStats,omitempty"`
}

// Pagination contains pagination metadata returned in console list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives the page count from the total.
func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
}
