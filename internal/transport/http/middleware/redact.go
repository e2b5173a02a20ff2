package middleware

import (
	"net/http"
)

const redactedValue = "REDACTED"

// RedactQueryToken hides the ?token= access token from RequestURI so request
// loggers mounted after it never print it. r.URL keeps the real value for
// AuthMiddleware.
func RedactQueryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("token") {
			q.Set("token", redactedValue)
			redacted := *r.URL
			redacted.RawQuery = q.Encode()

			r = r.WithContext(r.Context())
			r.RequestURI = redacted.RequestURI()
		}
		next.ServeHTTP(w, r)
	})
}
