package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/dto"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/export"
)

// List fetch outcomes reported to the observer.
const (
	FetchOutcomeApplied = "applied"
	FetchOutcomeStale   = "stale"
	FetchOutcomeFailed  = "failed"

	StatsSourceServer = "server"
	StatsSourcePage   = "page"

	defaultActionMessage = "Operación realizada correctamente"
)

// FetchFunc loads one page for a list screen.
type FetchFunc[T any] func(ctx context.Context, query models.ListQuery) (*models.ListResult[T], error)

// StatsFunc reduces the items of the current page into summary statistics.
type StatsFunc[T any] func(items []T) map[string]float64

// ExportSpec describes how a list screen renders rows for export.
type ExportSpec[T any] struct {
	Title   string
	Headers []string
	Row     func(item T) map[string]string
}

// ListScreen is the static description of one paginated list screen.
type ListScreen[T any] struct {
	Key            string
	FilterKeys     []string
	DefaultFilters models.Filters
	DefaultSort    models.Sort
	Mapper         ColumnFieldMapper
	Fetch          FetchFunc[T]
	Stats          StatsFunc[T]
	Export         ExportSpec[T]
}

// ListObserver records list fetch outcomes.
type ListObserver interface {
	ObserveListFetch(screen, outcome string, duration time.Duration)
}

// ListControllerOptions tunes a ListController.
type ListControllerOptions struct {
	PageSize     int
	MaxPageSize  int
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Observer     ListObserver
}

// Screen is the type-erased surface handlers drive.
type Screen interface {
	Key() string
	View() dto.ListView
	SetPage(n int) error
	SetPageSize(n int) error
	SetSort(column string, isDescending bool)
	ToggleSort(column string)
	ApplyFilters(partial models.Filters) error
	ClearFilters()
	Reset()
	Refresh()
	DismissError()
	DismissSuccess()
	Wait(ctx context.Context) error
	Dataset() (export.Dataset, string)
	Close()
}

// ListController is the single source of truth for what one list screen
// requests and shows. Every state change issues one fetch; fetches are tagged
// with a sequence number and only the latest issued one may update the
// displayed state.
type ListController[T any] struct {
	screen   ListScreen[T]
	maxSize  int
	timeout  time.Duration
	logger   *zap.Logger
	observer ListObserver

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      *ListQueryState
	filters    models.Filters
	seq        uint64
	latestDone chan struct{}
	closed     bool
	lastQuery  models.ListQuery

	items         []T
	total         int
	completeTotal *int
	pageTotal     int
	stats         map[string]float64
	statsSource   string
	loading       bool
	errMsg        string
	success       string
}

// NewListController mounts a screen and issues its first fetch. ctx bounds
// every fetch the controller makes; Close cancels it.
func NewListController[T any](ctx context.Context, screen ListScreen[T], opts ListControllerOptions) *ListController[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	cctx, cancel := context.WithCancel(ctx)
	c := &ListController[T]{
		screen:   screen,
		maxSize:  opts.MaxPageSize,
		timeout:  opts.FetchTimeout,
		logger:   opts.Logger.With(zap.String("screen", screen.Key)),
		observer: opts.Observer,
		ctx:      cctx,
		cancel:   cancel,
		state:    NewListQueryState(opts.PageSize, screen.DefaultSort),
		filters:  screen.DefaultFilters.Clone(),
	}
	c.mu.Lock()
	c.refreshLocked()
	c.mu.Unlock()
	return c
}

// Key returns the screen key.
func (c *ListController[T]) Key() string {
	return c.screen.Key
}

// SetPage moves to page n.
func (c *ListController[T]) SetPage(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.state.SetPage(n); err != nil {
		return err
	}
	c.refreshLocked()
	return nil
}

// SetPageSize changes the page size; the page resets to 1.
func (c *ListController[T]) SetPageSize(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && n > c.maxSize {
		return appErrors.Clone(appErrors.ErrValidation, "El tamaño de página excede el máximo permitido")
	}
	if err := c.state.SetPageSize(n); err != nil {
		return err
	}
	c.refreshLocked()
	return nil
}

// SetSort sorts by column in the requested direction.
func (c *ListController[T]) SetSort(column string, isDescending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetSort(column, isDescending)
	c.refreshLocked()
}

// ToggleSort applies a header click: ascending first, descending when the
// column is already sorted ascending.
func (c *ListController[T]) ToggleSort(column string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.state.Sort()
	descending := current.Column == column && current.Direction == models.SortAscending
	c.state.SetSort(column, descending)
	c.refreshLocked()
}

// ApplyFilters shallow-merges partial into the current filters and returns to
// page 1. Empty values unset a filter; unknown keys are rejected.
func (c *ListController[T]) ApplyFilters(partial models.Filters) error {
	if unknown := c.unknownFilters(partial); len(unknown) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "Filtro no válido: "+strings.Join(unknown, ", "))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range partial {
		if v == "" {
			delete(c.filters, k)
			continue
		}
		c.filters[k] = v
	}
	_ = c.state.SetPage(1)
	c.refreshLocked()
	return nil
}

// ClearFilters restores the default filters. Page size is kept.
func (c *ListController[T]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = c.screen.DefaultFilters.Clone()
	_ = c.state.SetPage(1)
	c.refreshLocked()
}

// Reset restores the mount-time page, page size and sort.
func (c *ListController[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
	c.refreshLocked()
}

// Refresh re-issues the current query.
func (c *ListController[T]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

// DismissError clears the error slot.
func (c *ListController[T]) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// DismissSuccess clears the success message.
func (c *ListController[T]) DismissSuccess() {
	c.mu.Lock()
	c.success = ""
	c.mu.Unlock()
}

// RunAction performs a mutating call. Success stores the server message and
// refreshes the list; failure only sets the error slot.
func (c *ListController[T]) RunAction(ctx context.Context, action func(ctx context.Context) (*models.ActionResult, error)) (*models.ActionResult, error) {
	result, err := action(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errMsg = appErrors.Message(err)
		c.logger.Warn("list action failed", zap.Error(err))
		return nil, err
	}
	c.success = defaultActionMessage
	if result != nil && result.Message != "" {
		c.success = result.Message
	}
	c.refreshLocked()
	return result, nil
}

// Wait blocks until no fetch is outstanding or ctx ends.
func (c *ListController[T]) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.loading {
			c.mu.Unlock()
			return nil
		}
		done := c.latestDone
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close unmounts the screen. In-flight fetches are cancelled and discarded.
func (c *ListController[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.seq++
	c.loading = false
	c.mu.Unlock()
	c.cancel()
}

// ListSnapshot is a typed copy of the controller state.
type ListSnapshot[T any] struct {
	Query            models.ListQuery
	Page             int
	PageSize         int
	Sort             models.Sort
	Filters          models.Filters
	Items            []T
	TotalCount       int
	CompleteTotal    *int
	CurrentPageTotal int
	Stats            map[string]float64
	StatsSource      string
	IsLoading        bool
	Error            string
	SuccessMessage   string
}

// Snapshot returns the current state.
func (c *ListController[T]) Snapshot() ListSnapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ListSnapshot[T]{
		Query:            c.lastQuery,
		Page:             c.state.Page(),
		PageSize:         c.state.PageSize(),
		Sort:             c.state.Sort(),
		Filters:          c.filters.Clone(),
		Items:            c.items,
		TotalCount:       c.total,
		CompleteTotal:    c.completeTotal,
		CurrentPageTotal: c.pageTotal,
		Stats:            c.stats,
		StatsSource:      c.statsSource,
		IsLoading:        c.loading,
		Error:            c.errMsg,
		SuccessMessage:   c.success,
	}
}

// View renders the state for the table-rendering layer.
func (c *ListController[T]) View() dto.ListView {
	snap := c.Snapshot()
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	return dto.ListView{
		Screen:           c.screen.Key,
		Items:            items,
		Pagination:       models.NewPagination(snap.Page, snap.PageSize, snap.TotalCount),
		CompleteTotal:    snap.CompleteTotal,
		CurrentPageTotal: snap.CurrentPageTotal,
		Sort:             snap.Sort,
		Filters:          snap.Filters,
		Stats:            snap.Stats,
		StatsSource:      snap.StatsSource,
		IsLoading:        snap.IsLoading,
		Error:            snap.Error,
		SuccessMessage:   snap.SuccessMessage,
	}
}

// Dataset renders the current page for export, with the export title.
func (c *ListController[T]) Dataset() (export.Dataset, string) {
	snap := c.Snapshot()
	data := export.Dataset{Headers: c.screen.Export.Headers}
	if c.screen.Export.Row == nil {
		return data, c.screen.Export.Title
	}
	data.Rows = make([]map[string]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		data.Rows = append(data.Rows, c.screen.Export.Row(item))
	}
	return data, c.screen.Export.Title
}

func (c *ListController[T]) unknownFilters(partial models.Filters) []string {
	allowed := make(map[string]struct{}, len(c.screen.FilterKeys))
	for _, k := range c.screen.FilterKeys {
		allowed[k] = struct{}{}
	}
	var unknown []string
	for k := range partial {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// refreshLocked issues a fetch for the current state. Caller holds mu.
func (c *ListController[T]) refreshLocked() {
	if c.closed {
		return
	}
	c.seq++
	seq := c.seq
	query := c.state.Query(c.screen.Mapper, c.filters)
	c.lastQuery = query
	c.loading = true
	done := make(chan struct{})
	c.latestDone = done
	go c.fetch(seq, query, done)
}

func (c *ListController[T]) fetch(seq uint64, query models.ListQuery, done chan struct{}) {
	defer close(done)
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.screen.Fetch(ctx, query)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.observe(FetchOutcomeStale, elapsed)
		c.logger.Debug("discarding stale list response", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	c.loading = false

	if err != nil {
		c.items = nil
		c.total = 0
		c.completeTotal = nil
		c.pageTotal = 0
		c.stats = nil
		c.statsSource = ""
		c.errMsg = appErrors.ErrListFetch.Message
		c.observe(FetchOutcomeFailed, elapsed)
		c.logger.Warn("list fetch failed", zap.Int("page", query.PageNumber), zap.Error(err))
		return
	}

	c.items = result.Items
	c.total = result.TotalCount
	c.completeTotal = result.CompleteTotal
	c.pageTotal = result.CurrentPageTotal
	switch {
	case result.AggregateStats != nil:
		c.stats = result.AggregateStats
		c.statsSource = StatsSourceServer
	case c.screen.Stats != nil:
		c.stats = c.screen.Stats(result.Items)
		c.statsSource = StatsSourcePage
	default:
		c.stats = nil
		c.statsSource = ""
	}
	c.errMsg = ""
	c.observe(FetchOutcomeApplied, elapsed)
}

func (c *ListController[T]) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveListFetch(c.screen.Key, outcome, d)
	}
}
