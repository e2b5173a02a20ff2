package handler

import (
	"errors"
	"log"
	"net/http"

	"hackmate/internal/httputil"
	"hackmate/internal/model"
)

// writeError maps a facade error onto the HTTP error envelope. Unknown
// errors are logged with op and reported as 500.
func writeError(w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteValidationError(w, verr.Field, verr.Message)
		return
	}

	switch {
	case errors.Is(err, model.ErrEmptyContent),
		errors.Is(err, model.ErrSelfConversation),
		errors.Is(err, model.ErrInvalidReaction),
		errors.Is(err, model.ErrNotAnEvent):
		httputil.WriteBadRequest(w, err.Error())

	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid email or password")
	case errors.Is(err, model.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, model.ErrRefreshTokenNotFound), errors.Is(err, model.ErrRefreshTokenRevoked):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid refresh token")
	case errors.Is(err, model.ErrRefreshTokenExpired):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
	case errors.Is(err, model.ErrRefreshTokenReused):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Refresh token reuse detected. Please login again.")

	case errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrNotParticipant),
		errors.Is(err, model.ErrProfilePrivate):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrPostNotFound),
		errors.Is(err, model.ErrConversationNotFound):
		httputil.WriteNotFound(w, err.Error())

	case errors.Is(err, model.ErrEmailAlreadyExists):
		httputil.WriteConflict(w, "Email already exists")

	case errors.Is(err, model.ErrBackendUnavailable):
		log.Printf("[ERROR] %s: backend unavailable: %v", op, err)
		httputil.WriteServiceUnavailable(w, "Service temporarily unavailable")

	default:
		log.Printf("[ERROR] %s: %v", op, err)
		httputil.WriteInternalError(w, "Failed to "+op)
	}
}
