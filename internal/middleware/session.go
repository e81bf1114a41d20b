package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/logger"
	"github.com/noah-isme/vacation-admin-console/pkg/response"
)

// ContextUserKey is the gin context key storing the signed-in session.
const ContextUserKey = "currentUser"

// SessionHeader lets non-browser clients pass the session id without a cookie.
const SessionHeader = "X-Console-Session"

type sessionResolver interface {
	Info(ctx context.Context, sessionID string) (*models.SessionInfo, error)
}

// Session protects routes by requiring a live console session.
func Session(sessions sessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionID(c, cookieName)
		if sessionID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		info, err := sessions.Info(c.Request.Context(), sessionID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, info)
		c.Set(logger.SessionKey, sessionID)
		c.Request = c.Request.WithContext(repository.WithSessionID(c.Request.Context(), sessionID))
		c.Next()
	}
}

// SessionID reads the session id from the cookie or the session header.
func SessionID(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if value, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

// CurrentSession returns the session stored by Session.
func CurrentSession(c *gin.Context) *models.SessionInfo {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	info, ok := value.(*models.SessionInfo)
	if !ok {
		return nil
	}
	return info
}
