package model

import (
	"errors"
	"time"
)

// Session binds a client to an authenticated user.
type Session struct {
	UserID       string `json:"-"`
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"` // Seconds until access token expires
}

// RefreshToken represents a refresh token stored in the database
type RefreshToken struct {
	ID         string     `db:"id" json:"id" firestore:"-"`
	UserID     string     `db:"user_id" json:"user_id" firestore:"userId"`
	TokenHash  string     `db:"token_hash" json:"-" firestore:"tokenHash"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at" firestore:"expiresAt"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at" firestore:"createdAt"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty" firestore:"revokedAt"`
	ReplacedBy *string    `db:"replaced_by" json:"replaced_by,omitempty" firestore:"replacedBy"`
}

// IsRevoked returns true if the token has been revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Refresh token errors
var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenReused   = errors.New("refresh token reuse detected")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenReused  = "TOKEN_REUSED"
)

// TokenPair represents both tokens returned after login/refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshRequest is the request body for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the request body for POST /auth/logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
