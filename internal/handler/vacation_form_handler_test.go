package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vacation-admin-console/internal/dto"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

var employeeSession = &models.SessionInfo{SessionID: "sess-employee", UserID: "7", Role: models.RoleEmployee}

func newFormRouter(t *testing.T, requests *fakeRequests, balances *fakeBalances) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewVacationFormHandler(newTestRegistry(t, requests, balances), nil)

	router := gin.New()
	form := router.Group("/vacation-form", withSession(employeeSession))
	form.GET("", h.Get)
	form.POST("/type", h.Type)
	form.POST("/days", h.Days)
	form.POST("/start-date", h.StartDate)
	form.POST("/notes", h.Notes)
	form.POST("/dismiss-error", h.DismissError)
	form.POST("/submit", h.Submit)
	form.POST("/reload", h.Reload)
	return router
}

func decodeForm(t *testing.T, env envelope) dto.VacationFormView {
	t.Helper()
	var view dto.VacationFormView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func TestVacationFormHandlerFullFlow(t *testing.T) {
	requests := &fakeRequests{}
	balances := &fakeBalances{periods: []models.EntitlementPeriod{
		{Period: 2024, FreeDaysAvailable: 0, BlockDaysAvailable: 0},
		{Period: 2025, FreeDaysAvailable: 10, BlockDaysAvailable: 15},
	}}
	router := newFormRouter(t, requests, balances)

	rec, env := perform(t, router, http.MethodGet, "/vacation-form", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeForm(t, env)
	require.NotNil(t, view.SelectedPeriod)
	assert.Equal(t, 2025, view.SelectedPeriod.Period)
	assert.Empty(t, view.DayOptions)
	assert.False(t, view.CanSubmit)

	_, env = perform(t, router, http.MethodPost, "/vacation-form/type", dto.FormTypeRequest{Type: models.VacationTypeFree})
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, decodeForm(t, env).DayOptions)

	rec, _ = perform(t, router, http.MethodPost, "/vacation-form/days", dto.FormDaysRequest{Days: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = perform(t, router, http.MethodPost, "/vacation-form/start-date", dto.FormStartDateRequest{StartDate: "2025-03-10"})
	view = decodeForm(t, env)
	require.NotNil(t, view.Draft.EndDate)
	assert.Equal(t, "2025-03-14", models.FormatCalendarDate(*view.Draft.EndDate))
	assert.True(t, view.CanSubmit)

	_, _ = perform(t, router, http.MethodPost, "/vacation-form/notes", dto.FormNotesRequest{Notes: "viaje"})

	rec, env = perform(t, router, http.MethodPost, "/vacation-form/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	view = decodeForm(t, env)
	assert.Equal(t, "Solicitud registrada", view.SuccessNotice)
	assert.Equal(t, models.VacationRequestDraft{}, view.Draft)

	require.Len(t, requests.created, 1)
	assert.Equal(t, models.CreateVacationRequest{
		Type: models.VacationTypeFree, DaysRequested: 5, StartDate: "2025-03-10", EndDate: "2025-03-14", Period: 2025, Notes: "viaje",
	}, requests.created[0])
}

func TestVacationFormHandlerRejectsInvalidInput(t *testing.T) {
	balances := &fakeBalances{periods: []models.EntitlementPeriod{{Period: 2025, FreeDaysAvailable: 3, BlockDaysAvailable: 7}}}
	router := newFormRouter(t, &fakeRequests{}, balances)

	rec, _ := perform(t, router, http.MethodPost, "/vacation-form/type", map[string]string{"type": "sabatico"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = perform(t, router, http.MethodPost, "/vacation-form/start-date", dto.FormStartDateRequest{StartDate: "10/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, _ = perform(t, router, http.MethodPost, "/vacation-form/type", dto.FormTypeRequest{Type: models.VacationTypeBlock})
	rec, _ = perform(t, router, http.MethodPost, "/vacation-form/days", dto.FormDaysRequest{Days: 15})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := perform(t, router, http.MethodPost, "/vacation-form/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrDaysRequired.Code, env.Error.Code)

	_, env = perform(t, router, http.MethodPost, "/vacation-form/dismiss-error", nil)
	assert.Empty(t, decodeForm(t, env).Error)
}

func TestVacationFormHandlerReload(t *testing.T) {
	balances := &fakeBalances{err: errors.New("upstream down")}
	router := newFormRouter(t, &fakeRequests{}, balances)

	_, env := perform(t, router, http.MethodGet, "/vacation-form", nil)
	view := decodeForm(t, env)
	assert.NotEmpty(t, view.Error)
	assert.Nil(t, view.SelectedPeriod)

	balances.err = nil
	balances.periods = []models.EntitlementPeriod{{Period: 2025, FreeDaysAvailable: 2}}
	_, env = perform(t, router, http.MethodPost, "/vacation-form/reload", nil)
	view = decodeForm(t, env)
	assert.Empty(t, view.Error)
	require.NotNil(t, view.SelectedPeriod)
	assert.Equal(t, 2025, view.SelectedPeriod.Period)
}
