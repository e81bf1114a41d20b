package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

const sessionTokenKeyPrefix = "vacconsole:session:"

// SessionTokenRepository keeps the bearer token of each console session in Redis.
type SessionTokenRepository struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewSessionTokenRepository constructs a token repository.
func NewSessionTokenRepository(client redis.Cmdable, logger *zap.Logger) *SessionTokenRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTokenRepository{client: client, logger: logger}
}

func sessionTokenKey(sessionID string) string {
	return sessionTokenKeyPrefix + sessionID
}

// Save stores the token for a session with the given TTL.
func (r *SessionTokenRepository) Save(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionTokenKey(sessionID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session token: %w", err)
	}
	return nil
}

// Get returns the token for a session. A missing session yields ErrUnauthorized.
func (r *SessionTokenRepository) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := r.client.Get(ctx, sessionTokenKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", appErrors.ErrUnauthorized
		}
		return "", fmt.Errorf("redis get session token: %w", err)
	}
	return token, nil
}

// Delete removes a session token. Deleting a missing session is not an error.
func (r *SessionTokenRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionTokenKey(sessionID)).Err(); err != nil {
		r.logger.Warn("failed to delete session token", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("redis del session token: %w", err)
	}
	return nil
}
