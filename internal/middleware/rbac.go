package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		allowedRoles[models.UserRole(a)] = struct{}{}
	}
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowedRoles[session.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// ScreenAccess guards /screens/:screen routes with a per-screen role list.
// Screens with no roles are open to every session.
func ScreenAccess(param string, rolesFor func(screen string) []models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		roles := rolesFor(c.Param(param))
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if r == session.Role {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
