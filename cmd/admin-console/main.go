package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/vacation-admin-console/api/swagger"
	"github.com/noah-isme/vacation-admin-console/internal/handler"
	"github.com/noah-isme/vacation-admin-console/internal/middleware"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	"github.com/noah-isme/vacation-admin-console/internal/service"
	"github.com/noah-isme/vacation-admin-console/pkg/cache"
	"github.com/noah-isme/vacation-admin-console/pkg/config"
	"github.com/noah-isme/vacation-admin-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/vacation-admin-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vacation-admin-console/pkg/middleware/requestid"
)

// @title Vacation Admin Console
// @version 1.0.0
// @description Session-scoped console over the vacation management API
// @BasePath /api/v1
// @schemes http https

const shutdownTimeout = 10 * time.Second

// invalidatorFunc lets the API client reach the session service, which is
// built after the repositories it indirectly depends on.
type invalidatorFunc func(sessionID, reason string)

func (f invalidatorFunc) Invalidate(sessionID, reason string) {
	f(sessionID, reason)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	tokens := repository.NewSessionTokenRepository(redisClient, logr)

	var sessions *service.SessionService
	invalidator := invalidatorFunc(func(sessionID, reason string) {
		sessions.Invalidate(sessionID, reason)
	})

	api := repository.NewAPIClient(repository.APIClientOptions{
		BaseURL:     cfg.VacationAPI.BaseURL,
		Timeout:     cfg.VacationAPI.Timeout,
		Credentials: repository.NewSessionCredentials(tokens, invalidator),
		Invalidator: invalidator,
		Observer:    metrics,
		Logger:      logr,
	})

	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Requests:  repository.NewVacationRequestRepository(api),
		Balances:  repository.NewBalanceRepository(api),
		Users:     repository.NewUserRepository(api),
		Roles:     repository.NewRoleRepository(api),
		Lists:     cfg.Lists,
		Form:      cfg.Form,
		Validator: validate,
		Logger:    logr,
		Metrics:   metrics,
	})
	defer registry.CloseAll()

	sessions = service.NewSessionService(tokens, registry, validate, metrics, logr, service.SessionConfig{TTL: cfg.Session.TTL})
	exports := service.NewExportService(service.ExportConfig{Enabled: cfg.Exports.Enabled, MaxRows: cfg.Exports.MaxRows}, logr, nil, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Watch(ctx)

	sessionHandler := handler.NewSessionHandler(sessions, cfg.Session)
	screenHandler := handler.NewScreenHandler(registry, exports, validate)
	formHandler := handler.NewVacationFormHandler(registry, validate)
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
		"redis": func(ctx context.Context) error { return cache.Ping(ctx, redisClient) },
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)
	v1.POST("/session", middleware.Audit(logr, "session_start", "session"), sessionHandler.Start)
	v1.DELETE("/session", middleware.Audit(logr, "session_end", "session"), sessionHandler.End)

	secured := v1.Group("")
	secured.Use(middleware.Session(sessions, cfg.Session.CookieName))
	secured.GET("/session", sessionHandler.Get)
	secured.GET("/metrics/summary", middleware.RequireRoles(service.ScreenAllowedRoles(service.ScreenUsers)...), metricsHandler.Summary)

	screens := secured.Group("/screens/:screen")
	screens.Use(middleware.ScreenAccess("screen", service.ScreenAllowedRoles))
	screens.GET("", screenHandler.Get)
	screens.DELETE("", screenHandler.Unmount)
	screens.POST("/page", screenHandler.Page)
	screens.POST("/page-size", screenHandler.PageSize)
	screens.POST("/sort", screenHandler.Sort)
	screens.POST("/filters", screenHandler.Filters)
	screens.POST("/filters/clear", screenHandler.ClearFilters)
	screens.POST("/reset", screenHandler.Reset)
	screens.POST("/refresh", screenHandler.Refresh)
	screens.POST("/dismiss-error", screenHandler.DismissError)
	screens.POST("/dismiss-success", screenHandler.DismissSuccess)
	screens.GET("/export", middleware.Audit(logr, "export", "list_screen"), screenHandler.Export)

	team := secured.Group("/team-requests")
	team.Use(middleware.RequireRoles(service.ScreenAllowedRoles(service.ScreenTeamRequests)...))
	team.POST("/:id/approve", middleware.Audit(logr, "approve", "vacation_request"), screenHandler.Approve)
	team.POST("/:id/reject", middleware.Audit(logr, "reject", "vacation_request"), screenHandler.Reject)

	secured.POST("/my-requests/:id/cancel", middleware.Audit(logr, "cancel", "vacation_request"), screenHandler.Cancel)

	form := secured.Group("/vacation-form")
	form.GET("", formHandler.Get)
	form.POST("/type", formHandler.Type)
	form.POST("/days", formHandler.Days)
	form.POST("/start-date", formHandler.StartDate)
	form.POST("/notes", formHandler.Notes)
	form.POST("/dismiss-error", formHandler.DismissError)
	form.POST("/submit", middleware.Audit(logr, "submit", "vacation_request"), formHandler.Submit)
	form.POST("/reload", formHandler.Reload)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
		return
	}
	logr.Info("server exited gracefully")
}
