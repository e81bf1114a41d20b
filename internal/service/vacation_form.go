package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/dto"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

const defaultSubmitNotice = "Solicitud de vacaciones enviada correctamente"

// maxFreeDayOptions bounds the free-day option list; no request spans more than a year.
const maxFreeDayOptions = 366

// BlockDayCandidates are the only chunk sizes block days can be requested in.
var BlockDayCandidates = []int{7, 8, 15}

type entitlementSource interface {
	MyPeriods(ctx context.Context) ([]models.EntitlementPeriod, error)
}

type vacationRequestCreator interface {
	Create(ctx context.Context, payload models.CreateVacationRequest) (*models.ActionResult, error)
}

// FormObserver records vacation form submissions.
type FormObserver interface {
	ObserveFormSubmit(outcome string)
}

// VacationFormOptions configures a VacationFormFlow.
type VacationFormOptions struct {
	NoticeTTL time.Duration
	Validator *validator.Validate
	Logger    *zap.Logger
	Observer  FormObserver
	Now       func() time.Time
}

// VacationFormFlow drives the vacation request form: period selection,
// day-count options and end date derivation.
type VacationFormFlow struct {
	entitlements entitlementSource
	creator      vacationRequestCreator
	validator    *validator.Validate
	logger       *zap.Logger
	observer     FormObserver
	noticeTTL    time.Duration
	now          func() time.Time

	mu          sync.Mutex
	periods     []models.EntitlementPeriod
	selected    *models.EntitlementPeriod
	draft       models.VacationRequestDraft
	loading     bool
	submitting  bool
	errMsg      string
	notice      string
	noticeUntil time.Time
}

// NewVacationFormFlow constructs an empty form. Call Load to fetch entitlements.
func NewVacationFormFlow(entitlements entitlementSource, creator vacationRequestCreator, opts VacationFormOptions) *VacationFormFlow {
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 5 * time.Second
	}
	return &VacationFormFlow{
		entitlements: entitlements,
		creator:      creator,
		validator:    opts.Validator,
		logger:       opts.Logger,
		observer:     opts.Observer,
		noticeTTL:    opts.NoticeTTL,
		now:          opts.Now,
	}
}

// SelectPeriod picks the earliest period, by year, with free or block days left.
func SelectPeriod(periods []models.EntitlementPeriod) *models.EntitlementPeriod {
	sorted := sortPeriods(periods)
	for i := range sorted {
		if sorted[i].HasAvailability() {
			p := sorted[i]
			return &p
		}
	}
	return nil
}

func sortPeriods(periods []models.EntitlementPeriod) []models.EntitlementPeriod {
	sorted := make([]models.EntitlementPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })
	return sorted
}

// DayOptions lists the selectable day counts for a type and period.
func DayOptions(vacationType models.VacationType, period *models.EntitlementPeriod) []int {
	if period == nil {
		return []int{}
	}
	switch vacationType {
	case models.VacationTypeFree:
		free := math.Floor(period.FreeDaysAvailable)
		if !(free >= 1) {
			return []int{}
		}
		max := int(math.Min(free, maxFreeDayOptions))
		options := make([]int, 0, max)
		for n := 1; n <= max; n++ {
			options = append(options, n)
		}
		return options
	case models.VacationTypeBlock:
		options := make([]int, 0, len(BlockDayCandidates))
		for _, n := range BlockDayCandidates {
			if float64(n) <= period.BlockDaysAvailable {
				options = append(options, n)
			}
		}
		return options
	default:
		return []int{}
	}
}

// DeriveEndDate returns start + days - 1 calendar days. ok is false unless
// both inputs are usable.
func DeriveEndDate(start *time.Time, days int) (time.Time, bool) {
	if start == nil || start.IsZero() || days <= 0 {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, days-1), true
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Load fetches the entitlement history and auto-selects a period.
func (f *VacationFormFlow) Load(ctx context.Context) error {
	f.mu.Lock()
	f.loading = true
	f.mu.Unlock()

	periods, err := f.entitlements.MyPeriods(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.errMsg = appErrors.Message(err)
		f.logger.Warn("failed to load entitlement periods", zap.Error(err))
		return err
	}
	f.errMsg = ""
	f.periods = sortPeriods(periods)
	f.selected = SelectPeriod(f.periods)
	f.reconcileLocked()
	return nil
}

// SetType selects the vacation type; an empty type clears the day count.
func (f *VacationFormFlow) SetType(t models.VacationType) error {
	switch t {
	case models.VacationTypeNone, models.VacationTypeFree, models.VacationTypeBlock:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "Tipo de vacaciones no válido")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Type = t
	f.reconcileLocked()
	return nil
}

// SetDaysRequested selects a day count from the current options; 0 clears it.
func (f *VacationFormFlow) SetDaysRequested(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n != 0 && !containsInt(DayOptions(f.draft.Type, f.selected), n) {
		return appErrors.Clone(appErrors.ErrValidation, "La cantidad de días seleccionada no está disponible")
	}
	f.draft.DaysRequested = n
	f.deriveLocked()
	return nil
}

// SetStartDate sets the first vacation day; nil clears it.
func (f *VacationFormFlow) SetStartDate(date *time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if date == nil || date.IsZero() {
		f.draft.StartDate = nil
	} else {
		d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		f.draft.StartDate = &d
	}
	f.deriveLocked()
}

// SetNotes sets the free-text notes.
func (f *VacationFormFlow) SetNotes(notes string) {
	f.mu.Lock()
	f.draft.Notes = notes
	f.mu.Unlock()
}

// DismissError clears the error slot.
func (f *VacationFormFlow) DismissError() {
	f.mu.Lock()
	f.errMsg = ""
	f.mu.Unlock()
}

// Submit validates the draft and creates the request. Validation stops at the
// first failure and never reaches the network. Only one submission runs at a
// time; a concurrent call fails with ErrSubmitInProgress.
func (f *VacationFormFlow) Submit(ctx context.Context) (*models.ActionResult, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		f.observe("duplicate")
		return nil, appErrors.ErrSubmitInProgress
	}
	payload, err := f.payloadLocked()
	if err != nil {
		f.errMsg = appErrors.Message(err)
		f.mu.Unlock()
		f.observe("invalid")
		return nil, err
	}
	f.submitting = true
	f.mu.Unlock()

	result, err := f.creator.Create(ctx, payload)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.errMsg = appErrors.Message(err)
		f.mu.Unlock()
		f.observe("failed")
		f.logger.Warn("vacation request submission failed", zap.Error(err))
		return nil, err
	}
	f.notice = defaultSubmitNotice
	if result != nil && result.Message != "" {
		f.notice = result.Message
	}
	f.noticeUntil = f.now().Add(f.noticeTTL)
	f.errMsg = ""
	f.draft = models.VacationRequestDraft{}
	f.mu.Unlock()
	f.observe("submitted")

	if err := f.Load(ctx); err != nil {
		f.logger.Warn("entitlement reload after submission failed", zap.Error(err))
	}
	return result, nil
}

func (f *VacationFormFlow) payloadLocked() (models.CreateVacationRequest, error) {
	if f.selected == nil {
		return models.CreateVacationRequest{}, appErrors.ErrPeriodRequired
	}
	if f.draft.Type == models.VacationTypeNone {
		return models.CreateVacationRequest{}, appErrors.ErrTypeRequired
	}
	if f.draft.DaysRequested <= 0 {
		return models.CreateVacationRequest{}, appErrors.ErrDaysRequired
	}
	if f.draft.StartDate == nil {
		return models.CreateVacationRequest{}, appErrors.ErrStartDateRequired
	}
	if f.draft.EndDate == nil {
		return models.CreateVacationRequest{}, appErrors.ErrEndDateRequired
	}
	payload := models.CreateVacationRequest{
		Type:          f.draft.Type,
		DaysRequested: f.draft.DaysRequested,
		StartDate:     models.FormatCalendarDate(*f.draft.StartDate),
		EndDate:       models.FormatCalendarDate(*f.draft.EndDate),
		Period:        f.selected.Period,
		Notes:         f.draft.Notes,
	}
	if err := f.validator.Struct(payload); err != nil {
		return models.CreateVacationRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	return payload, nil
}

// reconcileLocked drops a day count no longer offered and re-derives the end date.
func (f *VacationFormFlow) reconcileLocked() {
	if f.draft.DaysRequested != 0 && !containsInt(DayOptions(f.draft.Type, f.selected), f.draft.DaysRequested) {
		f.draft.DaysRequested = 0
	}
	f.deriveLocked()
}

func (f *VacationFormFlow) deriveLocked() {
	if end, ok := DeriveEndDate(f.draft.StartDate, f.draft.DaysRequested); ok {
		f.draft.EndDate = &end
		return
	}
	f.draft.EndDate = nil
}

// View renders the form state. The success notice disappears once its TTL
// has elapsed.
func (f *VacationFormFlow) View() dto.VacationFormView {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := dto.VacationFormView{
		Periods:      append([]models.EntitlementPeriod{}, f.periods...),
		Draft:        f.draft,
		DayOptions:   DayOptions(f.draft.Type, f.selected),
		IsLoading:    f.loading,
		IsSubmitting: f.submitting,
		Error:        f.errMsg,
	}
	if f.selected != nil {
		selected := *f.selected
		view.SelectedPeriod = &selected
		view.FreeDaysAvailable = selected.FreeDaysAvailable
		view.BlockDaysAvailable = selected.BlockDaysAvailable
	}
	if f.notice != "" && f.now().Before(f.noticeUntil) {
		view.SuccessNotice = f.notice
	}
	_, err := f.payloadLocked()
	view.CanSubmit = err == nil && !f.submitting
	return view
}

func (f *VacationFormFlow) observe(outcome string) {
	if f.observer != nil {
		f.observer.ObserveFormSubmit(outcome)
	}
}
