package model

import "errors"

// Session and identity errors
var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when registering an email that is taken
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when a command needs a session and has none
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when a session acts on a record it does not own
	ErrForbidden = errors.New("not allowed to modify this resource")

	ErrProfilePrivate = errors.New("profile is private")
)

// Content errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidReaction = errors.New("invalid reaction kind")
	ErrNotAnEvent      = errors.New("only hackathon posts can be saved to the calendar")
)

// Conversation errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrEmptyContent         = errors.New("message content is empty")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrBackendUnavailable marks failures to reach the store or identity backend.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ValidationError reports the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrConversationExists is returned by stores when the participant pair
// already has a conversation.
var ErrConversationExists = errors.New("conversation already exists for this pair")
