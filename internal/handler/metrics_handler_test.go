package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vacation-admin-console/internal/service"
)

func newMetricsRouter(metrics *service.MetricsService, checks map[string]ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(metrics, checks)
	router := gin.New()
	router.GET("/metrics", h.Prometheus)
	router.GET("/metrics/summary", h.Summary)
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	return router
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveUpstreamCall("/solicitudes-vacaciones/equipo", http.StatusOK, 20*time.Millisecond)
	router := newMetricsRouter(metrics, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vacation_api_request_duration_seconds")

	rec = httptest.NewRecorder()
	newMetricsRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveUpstreamCall("/usuarios", http.StatusBadGateway, 10*time.Millisecond)
	metrics.SetActiveWorkspaces(3)
	router := newMetricsRouter(metrics, nil)

	rec, env := perform(t, router, http.MethodGet, "/metrics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot service.MetricsSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, uint64(1), snapshot.UpstreamCalls)
	assert.Equal(t, uint64(1), snapshot.UpstreamFailures)
	assert.Equal(t, int64(3), snapshot.ActiveWorkspaces)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := map[string]ReadinessCheck{"redis": func(context.Context) error { return nil }}
	rec := httptest.NewRecorder()
	newMetricsRouter(nil, healthy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := map[string]ReadinessCheck{"redis": func(context.Context) error { return errors.New("redis ping: refused") }}
	rec = httptest.NewRecorder()
	newMetricsRouter(nil, failing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis ping: refused")

	rec = httptest.NewRecorder()
	newMetricsRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
