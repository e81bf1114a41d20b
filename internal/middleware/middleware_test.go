package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

type stubSessions struct {
	sessions map[string]*models.SessionInfo
}

func (s stubSessions) Info(_ context.Context, sessionID string) (*models.SessionInfo, error) {
	if info, ok := s.sessions[sessionID]; ok {
		return info, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newSessionRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	sessions := stubSessions{sessions: map[string]*models.SessionInfo{
		"boss":     {SessionID: "boss", Role: models.RoleManager},
		"employee": {SessionID: "employee", Role: models.RoleEmployee},
	}}
	router := gin.New()
	router.Use(Session(sessions, "vac_session"))
	chain := append([]gin.HandlerFunc{}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.String(http.StatusOK, repository.SessionIDFromContext(c.Request.Context()))
	})
	router.GET("/screens/:screen", chain...)
	return router
}

func TestSessionMiddlewareRequiresSession(t *testing.T) {
	router := newSessionRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/screens/my-requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/screens/my-requests", nil)
	req.AddCookie(&http.Cookie{Name: "vac_session", Value: "gone"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddlewarePropagatesSessionID(t *testing.T) {
	router := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/screens/my-requests", nil)
	req.AddCookie(&http.Cookie{Name: "vac_session", Value: "employee"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "employee", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/screens/my-requests", nil)
	req.Header.Set(SessionHeader, "boss")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "boss", rec.Body.String())
}

func TestScreenAccess(t *testing.T) {
	rolesFor := func(screen string) []models.UserRole {
		if screen == "team-requests" {
			return []models.UserRole{models.RoleManager, models.RoleAdmin}
		}
		return nil
	}
	router := newSessionRouter(ScreenAccess("screen", rolesFor))

	cases := []struct {
		session string
		path    string
		status  int
	}{
		{"boss", "/screens/team-requests", http.StatusOK},
		{"employee", "/screens/team-requests", http.StatusForbidden},
		{"employee", "/screens/my-requests", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set(SessionHeader, tc.session)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.session, tc.path)
	}
}

func TestRequireRoles(t *testing.T) {
	router := newSessionRouter(RequireRoles(models.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/screens/users", nil)
	req.Header.Set(SessionHeader, "boss")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type recordedRequest struct {
	method, path string
	status       int
}

type httpRecorder struct {
	requests []recordedRequest
}

func (r *httpRecorder) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.requests = append(r.requests, recordedRequest{method, path, status})
}

func TestMetricsMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &httpRecorder{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/screens/:screen", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/screens/roles", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, recordedRequest{http.MethodGet, "/screens/:screen", http.StatusNoContent}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, ExtractMeta(c))

	WithResponseMeta()(c)
	SetMeta(c, "stats_source", "page")
	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, "page", meta["stats_source"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestAuditLogsSuccessfulActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.SessionInfo{SessionID: "s-1", UserID: "42", Role: models.RoleManager})
		c.Next()
	})
	router.POST("/team-requests/:id/approve", Audit(zap.New(core), "approve", "vacation_request"), func(c *gin.Context) {
		if c.Param("id") == "0" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/team-requests/7/approve", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/team-requests/0/approve", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "approve", fields["action"])
	assert.Equal(t, "7", fields["resource_id"])
	assert.Equal(t, "42", fields["user_id"])
	assert.Equal(t, "JEFE", fields["role"])
}
