package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims the console reads from the vacation API
// bearer token. The signature is verified by the API, not by the console.
type SessionClaims struct {
	Email    string   `json:"email"`
	FullName string   `json:"name"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// SessionInfo describes the signed-in user to the rendering layer.
type SessionInfo struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      UserRole  `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// StartSessionRequest exchanges a bearer token for a console session.
type StartSessionRequest struct {
	Token string `json:"token" validate:"required"`
}
