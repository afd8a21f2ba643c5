package model

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAuthMissing    ErrorCode = "AUTH_MISSING"
	ErrSessionExpired ErrorCode = "SESSION_EXPIRED"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrServer         ErrorCode = "SERVER_ERROR"
)

// APIError is a structured error surfaced by the catalog API client.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewAuthMissingError is returned before any network call when no
// token is stored.
func NewAuthMissingError() *APIError {
	return &APIError{Code: ErrAuthMissing, Message: "not logged in"}
}

// NewSessionExpiredError is returned when the server rejects the
// stored token with 401. The session is torn down before this
// surfaces.
func NewSessionExpiredError() *APIError {
	return &APIError{Code: ErrSessionExpired, Message: "session expired, please log in again"}
}

// NewRateLimitError is returned when the retry budget for 429
// responses is exhausted.
func NewRateLimitError(attempts int) *APIError {
	return &APIError{
		Code:    ErrRateLimited,
		Message: fmt.Sprintf("rate limited by server after %d attempts", attempts),
	}
}

// IsCode reports whether err is (or wraps) an APIError with the given
// code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return IsCode(err, ErrNotFound) }

// IsSessionExpired reports whether err is a SESSION_EXPIRED error.
func IsSessionExpired(err error) bool { return IsCode(err, ErrSessionExpired) }

// IsRateLimited reports whether err is a RATE_LIMITED error.
func IsRateLimited(err error) bool { return IsCode(err, ErrRateLimited) }

// IsAuthMissing reports whether err is an AUTH_MISSING error.
func IsAuthMissing(err error) bool { return IsCode(err, ErrAuthMissing) }
