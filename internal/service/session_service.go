package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	"github.com/noah-isme/vacation-admin-console/internal/repository"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

// Reasons a session is invalidated.
const (
	InvalidationSignedOut    = "signed_out"
	InvalidationTokenExpired = "token_expired"
)

type sessionTokenStore interface {
	Save(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type workspaceDropper interface {
	Drop(sessionID string)
}

// SessionEvent announces that a session can no longer reach the vacation API.
type SessionEvent struct {
	SessionID string
	Reason    string
	At        time.Time
}

// SessionConfig tunes session lifetimes.
type SessionConfig struct {
	TTL time.Duration
}

// SessionService exchanges vacation API bearer tokens for console sessions
// and broadcasts session invalidations.
type SessionService struct {
	tokens     sessionTokenStore
	workspaces workspaceDropper
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        SessionConfig
	now        func() time.Time

	mu          sync.RWMutex
	subscribers []chan SessionEvent
}

// NewSessionService constructs a SessionService.
func NewSessionService(tokens sessionTokenStore, workspaces workspaceDropper, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 8 * time.Hour
	}
	return &SessionService{
		tokens:     tokens,
		workspaces: workspaces,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start stores the token under a new session id.
func (s *SessionService) Start(ctx context.Context, req models.StartSessionRequest) (*models.SessionInfo, error) {
	req.Token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(req.Token), "Bearer "))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Token requerido")
	}
	claims, err := repository.ParseSessionClaims(req.Token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Token no válido")
	}

	ttl := s.cfg.TTL
	if claims.ExpiresAt != nil {
		remaining := claims.ExpiresAt.Time.Sub(s.now())
		if remaining <= 0 {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "El token ha expirado")
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	sessionID := uuid.NewString()
	if err := s.tokens.Save(ctx, sessionID, req.Token, ttl); err != nil {
		return nil, err
	}
	info := sessionInfo(sessionID, claims)
	s.logger.Info("session started", zap.String("session_id", sessionID), zap.String("user_id", info.UserID), zap.String("role", string(info.Role)))
	return info, nil
}

// Info resolves a session id into the signed-in identity. An expired token
// invalidates the session.
func (s *SessionService) Info(ctx context.Context, sessionID string) (*models.SessionInfo, error) {
	if sessionID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	token, err := s.tokens.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	claims, err := repository.ParseSessionClaims(token)
	if err != nil {
		s.Invalidate(sessionID, "malformed_token")
		return nil, appErrors.ErrUnauthorized
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(s.now()) {
		s.Invalidate(sessionID, InvalidationTokenExpired)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "La sesión ha expirado")
	}
	return sessionInfo(sessionID, claims), nil
}

// End removes the session token and drops its workspace.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if s.workspaces != nil {
		s.workspaces.Drop(sessionID)
	}
	return s.tokens.Delete(ctx, sessionID)
}

// Invalidate publishes a session-invalidated event. Slow subscribers miss
// events rather than block the caller.
func (s *SessionService) Invalidate(sessionID, reason string) {
	s.metrics.RecordSessionInvalidation(reason)
	s.logger.Warn("session invalidated", zap.String("session_id", sessionID), zap.String("reason", reason))

	evt := SessionEvent{SessionID: sessionID, Reason: reason, At: s.now().UTC()}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			s.logger.Warn("session event dropped", zap.String("session_id", sessionID))
		}
	}
}

// Subscribe returns a channel receiving every later invalidation. The channel
// is closed when ctx ends.
func (s *SessionService) Subscribe(ctx context.Context, buffer int) <-chan SessionEvent {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan SessionEvent, buffer)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub == ch {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

// Watch ends every invalidated session until ctx is cancelled.
func (s *SessionService) Watch(ctx context.Context) {
	events := s.Subscribe(ctx, 64)
	for evt := range events {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.End(cleanupCtx, evt.SessionID); err != nil {
			s.logger.Warn("failed to end invalidated session", zap.String("session_id", evt.SessionID), zap.Error(err))
		}
		cancel()
	}
}

func sessionInfo(sessionID string, claims *models.SessionClaims) *models.SessionInfo {
	info := &models.SessionInfo{
		SessionID: sessionID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info
}
