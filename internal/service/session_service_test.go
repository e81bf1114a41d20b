package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
	ttls   map[string]time.Duration
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryTokenStore) Save(_ context.Context, sessionID, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = token
	m.ttls[sessionID] = ttl
	return nil
}

func (m *memoryTokenStore) Get(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[sessionID]
	if !ok {
		return "", appErrors.ErrUnauthorized
	}
	return token, nil
}

func (m *memoryTokenStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}

func (m *memoryTokenStore) has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[sessionID]
	return ok
}

type dropRecorder struct {
	mu      sync.Mutex
	dropped []string
}

func (d *dropRecorder) Drop(sessionID string) {
	d.mu.Lock()
	d.dropped = append(d.dropped, sessionID)
	d.mu.Unlock()
}

func signedToken(t *testing.T, role models.UserRole, expiresAt time.Time) string {
	t.Helper()
	claims := models.SessionClaims{
		Email:    "jefa@example.com",
		FullName: "Marta Ruiz",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newSessionServiceForTest(store *memoryTokenStore, drops *dropRecorder) *SessionService {
	return NewSessionService(store, drops, nil, NewMetricsService(), zap.NewNop(), SessionConfig{TTL: 8 * time.Hour})
}

func TestSessionServiceStartAndInfo(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newSessionServiceForTest(store, &dropRecorder{})
	token := signedToken(t, models.RoleManager, time.Now().Add(time.Hour))

	info, err := svc.Start(context.Background(), models.StartSessionRequest{Token: "Bearer " + token})
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Equal(t, "42", info.UserID)
	assert.Equal(t, models.RoleManager, info.Role)
	assert.Equal(t, token, store.tokens[info.SessionID])
	assert.LessOrEqual(t, store.ttls[info.SessionID], time.Hour)

	again, err := svc.Info(context.Background(), info.SessionID)
	require.NoError(t, err)
	assert.Equal(t, info.Email, again.Email)
	assert.Equal(t, "Marta Ruiz", again.FullName)
}

func TestSessionServiceStartRejectsBadTokens(t *testing.T) {
	svc := newSessionServiceForTest(newMemoryTokenStore(), &dropRecorder{})

	_, err := svc.Start(context.Background(), models.StartSessionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Start(context.Background(), models.StartSessionRequest{Token: "not-a-jwt"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired := signedToken(t, models.RoleEmployee, time.Now().Add(-time.Minute))
	_, err = svc.Start(context.Background(), models.StartSessionRequest{Token: expired})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSessionServiceInfoInvalidatesExpiredSession(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newSessionServiceForTest(store, &dropRecorder{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := svc.Subscribe(ctx, 4)

	require.NoError(t, store.Save(context.Background(), "s-1", signedToken(t, models.RoleHR, time.Now().Add(-time.Second)), time.Hour))
	_, err := svc.Info(context.Background(), "s-1")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	select {
	case evt := <-events:
		assert.Equal(t, "s-1", evt.SessionID)
		assert.Equal(t, InvalidationTokenExpired, evt.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected an invalidation event")
	}
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().SessionInvalidations)
}

func TestSessionServiceWatchEndsInvalidatedSessions(t *testing.T) {
	store := newMemoryTokenStore()
	drops := &dropRecorder{}
	svc := newSessionServiceForTest(store, drops)
	require.NoError(t, store.Save(context.Background(), "s-2", "token", time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Watch(ctx)
		close(done)
	}()

	// Watch subscribes asynchronously; keep publishing until it reacts.
	require.Eventually(t, func() bool {
		svc.Invalidate("s-2", "upstream_unauthorized")
		return !store.has("s-2")
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
	drops.mu.Lock()
	defer drops.mu.Unlock()
	assert.Contains(t, drops.dropped, "s-2")
}

func TestSessionServiceEnd(t *testing.T) {
	store := newMemoryTokenStore()
	drops := &dropRecorder{}
	svc := newSessionServiceForTest(store, drops)
	require.NoError(t, store.Save(context.Background(), "s-3", "token", time.Hour))

	require.NoError(t, svc.End(context.Background(), "s-3"))
	assert.False(t, store.has("s-3"))
	assert.Equal(t, []string{"s-3"}, drops.dropped)

	_, err := svc.Info(context.Background(), "s-3")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
