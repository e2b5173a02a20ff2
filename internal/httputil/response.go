package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Error codes returned in the error envelope
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_FAILED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnavailable  = "BACKEND_UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message. Field names the offending
// input on validation failures.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent
			log.Printf("[httputil] WriteJSON encode FAILED: status=%d err=%v", status, err)
		}
	}
}

// DecodeJSON reads the request body into dst, writing a 400 on failure.
// It reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// WriteError writes an error response:
// {"error": {"code": "ERROR_CODE", "message": "Human readable message"}}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WriteValidationError writes a 400 naming the field that failed
func WriteValidationError(w http.ResponseWriter, field, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    ErrCodeValidation,
			Message: message,
			Field:   field,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteBadRequestWithCode writes a 400 Bad Request error with a custom code
func WriteBadRequestWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteUnauthorizedWithCode writes a 401 Unauthorized error with a custom code
func WriteUnauthorizedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteServiceUnavailable writes a 503 when a backend cannot be reached
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
