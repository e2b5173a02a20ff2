package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hackmate/internal/httputil"
	"hackmate/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// SessionKey is the context key for the authenticated session
const SessionKey contextKey = "session"

// Authenticator turns an access token into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Session, error)
}

// AuthMiddleware rejects requests without a valid access token. The token is
// read from the Authorization header, then the access_token cookie, then the
// token query parameter (browsers cannot set headers on WebSocket upgrades).
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			session, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, model.ErrUnauthenticated):
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid or expired authentication token")
				case errors.Is(err, model.ErrBackendUnavailable):
					httputil.WriteServiceUnavailable(w, "Service temporarily unavailable")
				default:
					httputil.WriteInternalError(w, "Failed to authenticate")
				}
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	// 1. Authorization header (mobile apps)
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. Cookie (web browsers)
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// 3. Query parameter (WebSocket upgrades)
	return r.URL.Query().Get("token")
}

// SessionFromContext returns the session set by AuthMiddleware, or nil.
func SessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(SessionKey).(*model.Session)
	return session
}
