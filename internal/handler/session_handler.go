package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vacation-admin-console/internal/middleware"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/pkg/config"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/response"
)

type sessionService interface {
	Start(ctx context.Context, req models.StartSessionRequest) (*models.SessionInfo, error)
	End(ctx context.Context, sessionID string) error
}

// SessionHandler opens and closes console sessions.
type SessionHandler struct {
	sessions sessionService
	cfg      config.SessionConfig
	now      func() time.Time
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions sessionService, cfg config.SessionConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, cfg: cfg, now: time.Now}
}

func (h *SessionHandler) cookieMaxAge(info *models.SessionInfo) int {
	ttl := h.cfg.TTL
	if !info.ExpiresAt.IsZero() {
		if remaining := info.ExpiresAt.Sub(h.now()); ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}
	if ttl < time.Second {
		return 1
	}
	return int(ttl / time.Second)
}

// Start godoc
// @Summary Start a console session
// @Description Stores the bearer token issued by the vacation API and sets the session cookie.
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body models.StartSessionRequest true "Bearer token"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	info, err := h.sessions.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, info.SessionID, h.cookieMaxAge(info), "/", "", h.cfg.Secure, true)
	response.Created(c, info)
}

// Get godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// End godoc
// @Summary End the console session
// @Description Drops the session workspace and token. Idempotent.
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) End(c *gin.Context) {
	if sessionID := middleware.SessionID(c, h.cfg.CookieName); sessionID != "" {
		if err := h.sessions.End(c.Request.Context(), sessionID); err != nil {
			response.Error(c, err)
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.Secure, true)
	response.NoContent(c)
}
