package repository

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

type mapTokens map[string]string

func (m mapTokens) Get(_ context.Context, sessionID string) (string, error) {
	token, ok := m[sessionID]
	if !ok {
		return "", appErrors.ErrUnauthorized
	}
	return token, nil
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := models.SessionClaims{
		Email:    "jefe@example.com",
		FullName: "Jefe Uno",
		Role:     models.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "15",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionCredentialsReturnsValidToken(t *testing.T) {
	token := signToken(t, time.Now().Add(time.Hour))
	inv := &recordingInvalidator{}
	creds := NewSessionCredentials(mapTokens{"s1": token}, inv)

	got, err := creds.Token(WithSessionID(context.Background(), "s1"))
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Empty(t, inv.session)
}

func TestSessionCredentialsExpiredTokenInvalidates(t *testing.T) {
	token := signToken(t, time.Now().Add(-time.Minute))
	inv := &recordingInvalidator{}
	creds := NewSessionCredentials(mapTokens{"s1": token}, inv)

	_, err := creds.Token(WithSessionID(context.Background(), "s1"))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, []string{"s1"}, inv.session)
	assert.Equal(t, []string{"token_expired"}, inv.reasons)
}

func TestSessionCredentialsWithoutSession(t *testing.T) {
	creds := NewSessionCredentials(mapTokens{}, nil)
	_, err := creds.Token(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSessionCredentialsMalformedToken(t *testing.T) {
	inv := &recordingInvalidator{}
	creds := NewSessionCredentials(mapTokens{"s1": "not-a-jwt"}, inv)
	_, err := creds.Token(WithSessionID(context.Background(), "s1"))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, []string{"malformed_token"}, inv.reasons)
}

func TestParseSessionClaims(t *testing.T) {
	claims, err := ParseSessionClaims(signToken(t, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "15", claims.Subject)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, "Jefe Uno", claims.FullName)
}
