package apperrors

import "errors"

// Resource errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
)

// Authentication and authorization errors
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAccessDenied is returned when a principal cannot view a forum.
	// It is rendered exactly like ErrResourceNotFound at the HTTP edge.
	ErrAccessDenied = errors.New("access denied")
)

// Validation errors
var (
	ErrValidationFailed = errors.New("validation failed")
)

// Forum errors
var (
	ErrForumNotFound  = errors.New("forum not found")
	ErrThreadNotFound = errors.New("thread not found")
	ErrThreadClosed   = errors.New("thread is closed")
)

// NewNotFoundError wraps a specific not-found sentinel so that both the
// specific error and ErrResourceNotFound match with errors.Is.
func NewNotFoundError(specific error, message string) error {
	return &CustomError{
		Err:     errors.Join(specific, ErrResourceNotFound),
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewAccessDeniedError reports that the principal may not see the forum.
func NewAccessDeniedError(message string) error {
	return &CustomError{
		Err:     ErrAccessDenied,
		Message: message,
	}
}

// NewUnauthenticatedError reports a write attempted by an anonymous principal.
func NewUnauthenticatedError(message string) error {
	return &CustomError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) error {
	return (&CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}).WithDetails(map[string]interface{}{"field": field})
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

