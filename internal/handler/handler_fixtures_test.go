package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/middleware"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	"github.com/noah-isme/vacation-admin-console/internal/service"
	"github.com/noah-isme/vacation-admin-console/pkg/config"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

type fakeRequests struct {
	mu        sync.Mutex
	queries   []models.ListQuery
	created   []models.CreateVacationRequest
	decisions []int64
	actionErr error
}

func (f *fakeRequests) list(query models.ListQuery) (*models.ListResult[models.VacationRequest], error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return &models.ListResult[models.VacationRequest]{
		Items: []models.VacationRequest{
			{ID: 7, EmployeeName: "Ana Pérez", Type: models.VacationTypeFree, DaysRequested: 3, Status: models.RequestStatusPending},
		},
		TotalCount: 1, CurrentPageTotal: 1, Page: query.PageNumber, PageSize: query.PageSize,
	}, nil
}

func (f *fakeRequests) ListTeam(_ context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error) {
	return f.list(query)
}

func (f *fakeRequests) ListMine(_ context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error) {
	return f.list(query)
}

func (f *fakeRequests) Create(_ context.Context, payload models.CreateVacationRequest) (*models.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	return &models.ActionResult{Message: "Solicitud registrada"}, nil
}

func (f *fakeRequests) decide(id int64) (*models.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	f.decisions = append(f.decisions, id)
	return &models.ActionResult{Message: "Solicitud actualizada", RequestID: id}, nil
}

func (f *fakeRequests) Approve(_ context.Context, id int64, _ models.DecisionRequest) (*models.ActionResult, error) {
	return f.decide(id)
}

func (f *fakeRequests) Reject(_ context.Context, id int64, _ models.DecisionRequest) (*models.ActionResult, error) {
	return f.decide(id)
}

func (f *fakeRequests) Cancel(_ context.Context, id int64, _ models.DecisionRequest) (*models.ActionResult, error) {
	return f.decide(id)
}

// issued reports whether any recorded list call matched. Fetches run in
// their own goroutines, so recording order is not issue order.
func (f *fakeRequests) issued(match func(models.ListQuery) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, query := range f.queries {
		if match(query) {
			return true
		}
	}
	return false
}

type fakeBalances struct {
	periods []models.EntitlementPeriod
	err     error
}

func (f *fakeBalances) List(_ context.Context, query models.ListQuery) (*models.ListResult[models.Balance], error) {
	return &models.ListResult[models.Balance]{Items: []models.Balance{}, Page: query.PageNumber, PageSize: query.PageSize}, nil
}

func (f *fakeBalances) MyPeriods(context.Context) ([]models.EntitlementPeriod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.periods, nil
}

type fakeUsers struct{}

func (fakeUsers) List(_ context.Context, query models.ListQuery) (*models.ListResult[models.User], error) {
	return &models.ListResult[models.User]{Items: []models.User{}, Page: query.PageNumber, PageSize: query.PageSize}, nil
}

type fakeRoles struct{}

func (fakeRoles) List(_ context.Context, query models.ListQuery) (*models.ListResult[models.Role], error) {
	return &models.ListResult[models.Role]{Items: []models.Role{}, Page: query.PageNumber, PageSize: query.PageSize}, nil
}

func newTestRegistry(t *testing.T, requests *fakeRequests, balances *fakeBalances) *service.WorkspaceRegistry {
	t.Helper()
	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Requests: requests,
		Balances: balances,
		Users:    fakeUsers{},
		Roles:    fakeRoles{},
		Lists:    config.ListConfig{DefaultPageSize: 10, MaxPageSize: 50, FetchTimeout: time.Second},
		Form:     config.FormConfig{NoticeTTL: time.Minute},
		Logger:   zap.NewNop(),
	})
	t.Cleanup(registry.CloseAll)
	return registry
}

// withSession stands in for the session middleware.
func withSession(info *models.SessionInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if info == nil {
			return
		}
		c.Set(middleware.ContextUserKey, info)
		c.Request = c.Request.WithContext(repository.WithSessionID(c.Request.Context(), info.SessionID))
		c.Next()
	}
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
	Meta       map[string]any     `json:"meta"`
}

func perform(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}
