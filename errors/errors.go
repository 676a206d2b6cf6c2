package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Chat core taxonomy.
	ErrMalformedEvent = fmt.Errorf("malformed event")
	ErrUnauthorized   = fmt.Errorf("not authorized for this conversation")
	ErrPersistence    = fmt.Errorf("persistence failure")
	ErrNotFound       = fmt.Errorf("not found")

	// Accounts.
	ErrUnauthenticated    = fmt.Errorf("invalid or expired token")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Conversations.
	ErrSelfConversation   = fmt.Errorf("cannot start a direct conversation with yourself")
	ErrNoParticipants     = fmt.Errorf("at least one other participant is required")
	ErrMissingGroupName   = fmt.Errorf("group name is required")
	ErrUnknownParticipant = fmt.Errorf("participant not found")
)

// MapToHTTPStatus converts a domain error into the HTTP status carried by
// the REST surface. Unknown errors map to 500 so nothing internal leaks
// as a client fault.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownParticipant):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMalformedEvent),
		errors.Is(err, ErrSelfConversation),
		errors.Is(err, ErrNoParticipants),
		errors.Is(err, ErrMissingGroupName),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
