package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/vacation-admin-console/internal/dto"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/service"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/response"
)

// VacationFormHandler drives the vacation request form of a session.
type VacationFormHandler struct {
	workspaces workspaceProvider
	validate   *validator.Validate
}

// NewVacationFormHandler constructs a VacationFormHandler.
func NewVacationFormHandler(workspaces workspaceProvider, validate *validator.Validate) *VacationFormHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &VacationFormHandler{workspaces: workspaces, validate: validate}
}

func (h *VacationFormHandler) form(c *gin.Context) (*service.VacationFormFlow, error) {
	session, err := sessionFromContext(c)
	if err != nil {
		return nil, err
	}
	if h.workspaces == nil {
		return nil, appErrors.ErrInternal
	}
	return h.workspaces.Get(session.SessionID).Form(c.Request.Context())
}

func (h *VacationFormHandler) update(c *gin.Context, fn func(form *service.VacationFormFlow) error) {
	form, err := h.form(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if fn != nil {
		if err := fn(form); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.JSON(c, http.StatusOK, form.View(), nil)
}

// Get godoc
// @Summary Show the vacation request form
// @Description Loads entitlement periods on first access.
// @Tags VacationForm
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vacation-form [get]
func (h *VacationFormHandler) Get(c *gin.Context) {
	h.update(c, nil)
}

// Type godoc
// @Summary Select the vacation type
// @Tags VacationForm
// @Accept json
// @Produce json
// @Param payload body dto.FormTypeRequest true "Type"
// @Success 200 {object} response.Envelope
// @Router /vacation-form/type [post]
func (h *VacationFormHandler) Type(c *gin.Context) {
	var req dto.FormTypeRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.update(c, func(form *service.VacationFormFlow) error { return form.SetType(req.Type) })
}

// Days godoc
// @Summary Select the number of days
// @Tags VacationForm
// @Accept json
// @Produce json
// @Param payload body dto.FormDaysRequest true "Days"
// @Success 200 {object} response.Envelope
// @Router /vacation-form/days [post]
func (h *VacationFormHandler) Days(c *gin.Context) {
	var req dto.FormDaysRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.update(c, func(form *service.VacationFormFlow) error { return form.SetDaysRequested(req.Days) })
}

// StartDate godoc
// @Summary Set the start date
// @Description An empty startDate clears it. The end date is derived.
// @Tags VacationForm
// @Accept json
// @Produce json
// @Param payload body dto.FormStartDateRequest true "Start date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /vacation-form/start-date [post]
func (h *VacationFormHandler) StartDate(c *gin.Context) {
	var req dto.FormStartDateRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	var start *time.Time
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		parsed, err := models.ParseCalendarDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Fecha de inicio no válida"))
			return
		}
		start = &parsed
	}
	h.update(c, func(form *service.VacationFormFlow) error {
		form.SetStartDate(start)
		return nil
	})
}

// Notes godoc
// @Summary Set the notes
// @Tags VacationForm
// @Accept json
// @Produce json
// @Param payload body dto.FormNotesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Router /vacation-form/notes [post]
func (h *VacationFormHandler) Notes(c *gin.Context) {
	var req dto.FormNotesRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.update(c, func(form *service.VacationFormFlow) error {
		form.SetNotes(req.Notes)
		return nil
	})
}

// DismissError godoc
// @Summary Dismiss the form error
// @Tags VacationForm
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vacation-form/dismiss-error [post]
func (h *VacationFormHandler) DismissError(c *gin.Context) {
	h.update(c, func(form *service.VacationFormFlow) error {
		form.DismissError()
		return nil
	})
}

// Submit godoc
// @Summary Submit the vacation request
// @Description A rejected submission keeps the draft and reports the error in the form.
// @Tags VacationForm
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /vacation-form/submit [post]
func (h *VacationFormHandler) Submit(c *gin.Context) {
	form, err := h.form(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := form.Submit(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form.View())
}

// Reload godoc
// @Summary Reload entitlement periods
// @Tags VacationForm
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vacation-form/reload [post]
func (h *VacationFormHandler) Reload(c *gin.Context) {
	h.update(c, func(form *service.VacationFormFlow) error {
		// A failed load lands in the form's error slot.
		_ = form.Load(c.Request.Context())
		return nil
	})
}
