package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies every failure the core can produce. Callers switch on it instead of
// inspecting error names or messages.
type Kind int

const (
	// KindInternal covers store, hashing and signing failures that are not otherwise classified.
	KindInternal Kind = iota
	// KindValidation is malformed input; the caller must fix it and retry.
	KindValidation
	// KindNotFound means a referenced actor does not exist.
	KindNotFound
	// KindInvalidID means an id is syntactically wrong for the store.
	KindInvalidID
	// KindConflict is a unique-field collision; Conflicts lists every colliding field.
	KindConflict
	// KindAuth is a bad credential at login or password change.
	KindAuth
	// KindForbidden is a missing, invalid, expired or stale token, or an operation the actor
	// is not permitted to perform in its current state.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidID:
		return "invalid_id"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldConflict names one unique field whose value is already taken.
type FieldConflict struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Error is the single error type flowing out of stores, the token service and the services.
type Error struct {
	Kind      Kind
	Message   string
	Conflicts []FieldConflict
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// InvalidID builds a KindInvalidID error.
func InvalidID(message string) *Error {
	return New(KindInvalidID, message)
}

// Auth builds a KindAuth error.
func Auth(message string) *Error {
	return New(KindAuth, message)
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// Conflict builds a KindConflict error listing every colliding field. The message names the
// role so that it reads "Admin with email: a@b.c exists already, ...".
func Conflict(subject string, conflicts []FieldConflict) *Error {
	if len(conflicts) == 0 {
		return &Error{Kind: KindConflict, Message: fmt.Sprintf("%s conflicts with an existing record", subject)}
	}
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("%s with %s: %s exists already, use another %s", subject, c.Field, c.Value, c.Field))
	}
	return &Error{
		Kind:      KindConflict,
		Message:   strings.Join(parts, "; "),
		Conflicts: conflicts,
	}
}

// KindOf reports the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ConflictsOf returns the colliding fields carried by err, if any.
func ConflictsOf(err error) []FieldConflict {
	var e *Error
	if errors.As(err, &e) {
		return e.Conflicts
	}
	return nil
}

// Surface decides how input failures are reported: self-service actions (registration,
// login, creation) answer 401, authorized mutations answer 422.
type Surface int

const (
	SurfacePublic Surface = iota
	SurfaceAuthorized
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Conflicts []FieldConflict `json:"conflicts,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Conflicts  []FieldConflict
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Message:   e.Message,
		Conflicts: e.Conflicts,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal details never reach the caller.
func MapErrorToHTTP(err error, surface Surface) *HTTPError {
	var e *Error
	if !errors.As(err, &e) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	inputStatus := http.StatusUnauthorized
	if surface == SurfaceAuthorized {
		inputStatus = http.StatusUnprocessableEntity
	}

	switch e.Kind {
	case KindValidation:
		return NewHTTPError(inputStatus, e.Message)
	case KindConflict:
		httpErr := NewHTTPError(inputStatus, e.Message)
		httpErr.Conflicts = e.Conflicts
		return httpErr
	case KindAuth:
		return NewHTTPError(http.StatusUnauthorized, e.Message)
	case KindNotFound, KindInvalidID:
		return NewHTTPError(http.StatusBadRequest, e.Message)
	case KindForbidden:
		return NewHTTPError(http.StatusForbidden, e.Message)
	case KindInternal:
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error")
}
