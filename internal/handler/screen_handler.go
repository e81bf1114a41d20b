package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/vacation-admin-console/internal/dto"
	"github.com/noah-isme/vacation-admin-console/internal/middleware"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/service"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/response"
)

type workspaceProvider interface {
	Get(sessionID string) *service.Workspace
}

type screenExporter interface {
	Render(screen service.ExportSource, format string) (*service.ExportFile, error)
}

// ScreenHandler drives the list screens of a session's workspace.
type ScreenHandler struct {
	workspaces workspaceProvider
	exporter   screenExporter
	validate   *validator.Validate
}

// NewScreenHandler constructs a ScreenHandler.
func NewScreenHandler(workspaces workspaceProvider, exporter screenExporter, validate *validator.Validate) *ScreenHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ScreenHandler{workspaces: workspaces, exporter: exporter, validate: validate}
}

func (h *ScreenHandler) workspace(c *gin.Context) (*service.Workspace, error) {
	session, err := sessionFromContext(c)
	if err != nil {
		return nil, err
	}
	if h.workspaces == nil {
		return nil, appErrors.ErrInternal
	}
	return h.workspaces.Get(session.SessionID), nil
}

func (h *ScreenHandler) screen(c *gin.Context) (service.Screen, error) {
	ws, err := h.workspace(c)
	if err != nil {
		return nil, err
	}
	return ws.Screen(c.Param("screen"))
}

// mutate runs fn against the screen and answers with its settled view.
func (h *ScreenHandler) mutate(c *gin.Context, fn func(screen service.Screen) error) {
	screen, err := h.screen(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if fn != nil {
		if err := fn(screen); err != nil {
			response.Error(c, err)
			return
		}
	}
	h.respondView(c, screen)
}

func (h *ScreenHandler) respondView(c *gin.Context, screen service.Screen) {
	settle(c, screen)
	view := screen.View()
	if view.StatsSource != "" {
		middleware.SetMeta(c, "stats_source", view.StatsSource)
	}
	pagination := view.Pagination
	response.JSON(c, http.StatusOK, view, &pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Show a list screen
// @Description Mounts the screen on first access and returns its current state.
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Param wait query bool false "Wait for the pending fetch (default true)"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen} [get]
func (h *ScreenHandler) Get(c *gin.Context) {
	h.mutate(c, nil)
}

// Page godoc
// @Summary Change page
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen key"
// @Param payload body dto.PageRequest true "Page"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/page [post]
func (h *ScreenHandler) Page(c *gin.Context) {
	var req dto.PageRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.mutate(c, func(screen service.Screen) error { return screen.SetPage(req.Page) })
}

// PageSize godoc
// @Summary Change page size
// @Description Changing the page size always returns to page 1.
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen key"
// @Param payload body dto.PageSizeRequest true "Page size"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/page-size [post]
func (h *ScreenHandler) PageSize(c *gin.Context) {
	var req dto.PageSizeRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.mutate(c, func(screen service.Screen) error { return screen.SetPageSize(req.PageSize) })
}

// Sort godoc
// @Summary Sort a list screen
// @Description Without isDescending the header-click toggle applies.
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen key"
// @Param payload body dto.SortRequest true "Sort"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/sort [post]
func (h *ScreenHandler) Sort(c *gin.Context) {
	var req dto.SortRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.mutate(c, func(screen service.Screen) error {
		if req.IsDescending == nil {
			screen.ToggleSort(req.Column)
			return nil
		}
		screen.SetSort(req.Column, *req.IsDescending)
		return nil
	})
}

// Filters godoc
// @Summary Apply filters
// @Description Merges the given filters; an empty value removes the key. Returns to page 1.
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen key"
// @Param payload body dto.FiltersRequest true "Filters"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/filters [post]
func (h *ScreenHandler) Filters(c *gin.Context) {
	var req dto.FiltersRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.mutate(c, func(screen service.Screen) error { return screen.ApplyFilters(models.Filters(req.Filters)) })
}

// ClearFilters godoc
// @Summary Clear filters
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/filters/clear [post]
func (h *ScreenHandler) ClearFilters(c *gin.Context) {
	h.mutate(c, func(screen service.Screen) error {
		screen.ClearFilters()
		return nil
	})
}

// Reset godoc
// @Summary Reset a list screen
// @Description Restores page, page size and sort to the screen defaults. Filters are kept.
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/reset [post]
func (h *ScreenHandler) Reset(c *gin.Context) {
	h.mutate(c, func(screen service.Screen) error {
		screen.Reset()
		return nil
	})
}

// Refresh godoc
// @Summary Refetch a list screen
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/refresh [post]
func (h *ScreenHandler) Refresh(c *gin.Context) {
	h.mutate(c, func(screen service.Screen) error {
		screen.Refresh()
		return nil
	})
}

// DismissError godoc
// @Summary Dismiss the screen error
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/dismiss-error [post]
func (h *ScreenHandler) DismissError(c *gin.Context) {
	h.mutate(c, func(screen service.Screen) error {
		screen.DismissError()
		return nil
	})
}

// DismissSuccess godoc
// @Summary Dismiss the screen success message
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen key"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/dismiss-success [post]
func (h *ScreenHandler) DismissSuccess(c *gin.Context) {
	h.mutate(c, func(screen service.Screen) error {
		screen.DismissSuccess()
		return nil
	})
}

// Unmount godoc
// @Summary Unmount a list screen
// @Description Late responses for the screen are discarded.
// @Tags Screens
// @Param screen path string true "Screen key"
// @Success 204
// @Router /screens/{screen} [delete]
func (h *ScreenHandler) Unmount(c *gin.Context) {
	ws, err := h.workspace(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	key := c.Param("screen")
	if !service.KnownScreen(key) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Pantalla no encontrada"))
		return
	}
	ws.Unmount(key)
	response.NoContent(c)
}

// Export godoc
// @Summary Export the visible page
// @Tags Screens
// @Produce text/csv
// @Produce application/pdf
// @Param screen path string true "Screen key"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /screens/{screen}/export [get]
func (h *ScreenHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrExportDisabled)
		return
	}
	screen, err := h.screen(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	settle(c, screen)
	file, err := h.exporter.Render(screen, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

type requestAction func(ws *service.Workspace, ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error)

func (h *ScreenHandler) runAction(c *gin.Context, screenKey string, action requestAction) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var body dto.DecisionBody
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, h.validate, &body); err != nil {
			response.Error(c, err)
			return
		}
	}
	ws, err := h.workspace(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := action(ws, c.Request.Context(), id, models.DecisionRequest{Comment: body.Comment, Reason: body.Reason})
	if err != nil {
		response.Error(c, err)
		return
	}
	screen, err := ws.Screen(screenKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	settle(c, screen)
	view := screen.View()
	response.JSON(c, http.StatusOK, dto.ActionView{Result: result, List: view}, &view.Pagination)
}

// Approve godoc
// @Summary Approve a team vacation request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.DecisionBody false "Optional comment"
// @Success 200 {object} response.Envelope
// @Router /team-requests/{id}/approve [post]
func (h *ScreenHandler) Approve(c *gin.Context) {
	h.runAction(c, service.ScreenTeamRequests, (*service.Workspace).Approve)
}

// Reject godoc
// @Summary Reject a team vacation request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.DecisionBody true "Reason is required"
// @Success 200 {object} response.Envelope
// @Router /team-requests/{id}/reject [post]
func (h *ScreenHandler) Reject(c *gin.Context) {
	h.runAction(c, service.ScreenTeamRequests, (*service.Workspace).Reject)
}

// Cancel godoc
// @Summary Cancel one of my vacation requests
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.DecisionBody false "Optional comment"
// @Success 200 {object} response.Envelope
// @Router /my-requests/{id}/cancel [post]
func (h *ScreenHandler) Cancel(c *gin.Context) {
	h.runAction(c, service.ScreenMyRequests, (*service.Workspace).Cancel)
}
