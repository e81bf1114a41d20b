package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

type recordingInvalidator struct {
	mu      sync.Mutex
	session []string
	reasons []string
}

func (r *recordingInvalidator) Invalidate(sessionID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = append(r.session, sessionID)
	r.reasons = append(r.reasons, reason)
}

type recordingObserver struct {
	endpoints []string
	statuses  []int
}

func (o *recordingObserver) ObserveUpstreamCall(endpoint string, status int, _ time.Duration) {
	o.endpoints = append(o.endpoints, endpoint)
	o.statuses = append(o.statuses, status)
}

func staticToken(token string) CredentialProvider {
	return CredentialFunc(func(context.Context) (string, error) { return token, nil })
}

func newTestClient(t *testing.T, handler http.HandlerFunc, inv SessionInvalidator, obs UpstreamObserver) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIClient(APIClientOptions{
		BaseURL:     srv.URL + "/api/",
		Credentials: staticToken("tok-1"),
		Invalidator: inv,
		Observer:    obs,
	})
}

func TestListTeamSerializesQueryAndDecodesEnvelope(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotAuth string
	obs := &recordingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"total":         42,
			"totalCompleto": 50,
			"pagina":        2,
			"tamanoPagina":  10,
			"solicitudes": []map[string]interface{}{
				{"id": 7, "nombreEmpleado": "Ana", "estado": "pendiente", "diasSolicitados": 3, "tipoVacaciones": "libres"},
			},
			"estadisticas": map[string]float64{"pendientes": 5, "aprobadas": 30},
		})
	}, nil, obs)

	desc := true
	repo := NewVacationRequestRepository(client)
	result, err := repo.ListTeam(context.Background(), models.ListQuery{
		PageNumber:   2,
		PageSize:     10,
		SortBy:       "usuario.nombreCompleto",
		IsDescending: &desc,
		Filters:      models.Filters{"estado": "pendiente", "periodo": ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/solicitudes-vacaciones/equipo", gotPath)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, map[string]string{
		"pageNumber":   "2",
		"pageSize":     "10",
		"sortBy":       "usuario.nombreCompleto",
		"isDescending": "true",
		"estado":       "pendiente",
	}, gotQuery)

	assert.Equal(t, 42, result.TotalCount)
	require.NotNil(t, result.CompleteTotal)
	assert.Equal(t, 50, *result.CompleteTotal)
	assert.Equal(t, 1, result.CurrentPageTotal)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, float64(5), result.AggregateStats["pendientes"])
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Ana", result.Items[0].EmployeeName)
	assert.Equal(t, models.RequestStatusPending, result.Items[0].Status)
	assert.Equal(t, []string{"requests.team"}, obs.endpoints)
	assert.Equal(t, []int{http.StatusOK}, obs.statuses)
}

func TestListWithoutStatsLeavesAggregateNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"saldos":[]}`))
	}, nil, nil)

	result, err := NewBalanceRepository(client).List(context.Background(), models.ListQuery{PageNumber: 1, PageSize: 25})
	require.NoError(t, err)
	assert.Nil(t, result.AggregateStats)
	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 25, result.PageSize)
}

func TestListMissingItemsKeyFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":3,"items":[]}`))
	}, nil, nil)

	_, err := NewUserRepository(client).List(context.Background(), models.ListQuery{PageNumber: 1, PageSize: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	inv := &recordingInvalidator{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, inv, nil)

	ctx := WithSessionID(context.Background(), "sess-1")
	_, err := NewRoleRepository(client).List(ctx, models.ListQuery{PageNumber: 1, PageSize: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, []string{"sess-1"}, inv.session)
	assert.Equal(t, []string{"upstream_unauthorized"}, inv.reasons)
}

func TestRejectedActionSurfacesServerMessage(t *testing.T) {
	var body models.DecisionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/solicitudes-vacaciones/9/rechazar", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"mensaje":"La solicitud ya fue procesada"}`))
	}, nil, nil)

	_, err := NewVacationRequestRepository(client).Reject(context.Background(), 9, models.DecisionRequest{Reason: "sin cobertura"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamRejected.Code, appErr.Code)
	assert.Equal(t, "La solicitud ya fue procesada", appErr.Message)
	assert.Equal(t, "sin cobertura", body.Reason)
}

func TestApproveDefaultsRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"mensaje":"Solicitud aprobada","estado":"aprobada"}`))
	}, nil, nil)

	result, err := NewVacationRequestRepository(client).Approve(context.Background(), 12, models.DecisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.RequestID)
	assert.Equal(t, "Solicitud aprobada", result.Message)
	assert.Equal(t, models.RequestStatusApproved, result.Status)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil, nil)

	_, err := NewBalanceRepository(client).MyPeriods(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstreamUnavailable)
}

func TestTransportFailureMapsToUnavailable(t *testing.T) {
	obs := &recordingObserver{}
	client := NewAPIClient(APIClientOptions{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, Observer: obs})

	_, err := NewBalanceRepository(client).MyPeriods(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstreamUnavailable)
	assert.Equal(t, []int{0}, obs.statuses)
}

func TestCredentialFailureSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	client := NewAPIClient(APIClientOptions{
		BaseURL: srv.URL,
		Credentials: CredentialFunc(func(context.Context) (string, error) {
			return "", appErrors.ErrUnauthorized
		}),
	})
	_, err := NewBalanceRepository(client).MyPeriods(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.False(t, called)
}
