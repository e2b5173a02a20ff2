package model

import (
	"time"
)

// DeviceToken is a push registration for one of a user's devices.
type DeviceToken struct {
	UserID    string    `db:"user_id" json:"-" firestore:"userId"`
	Token     string    `db:"token" json:"-" firestore:"-"`
	Platform  string    `db:"platform" json:"platform" firestore:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at" firestore:"updatedAt"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Platform constants
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// ValidPlatform reports whether p is a known push platform.
func ValidPlatform(p string) bool {
	return p == PlatformIOS || p == PlatformAndroid || p == PlatformWeb
}
