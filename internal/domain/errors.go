// Package domain contains the core business entities for the City Guide directory.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.),
// which surface as ErrStoreUnavailable once they leave the repository layer.

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates authentication failed.
	// The message is shown to users verbatim.
	ErrInvalidCredentials = errors.New("Incorrect username or password")

	// ===========================================
	// Listing Errors
	// ===========================================

	// ErrListingNotFound indicates the requested listing does not exist
	// or the identifier could not be parsed.
	ErrListingNotFound = errors.New("listing not found")

	// ErrUnknownCategory indicates a category slug that is not one of
	// restaurants, nightlife or services.
	ErrUnknownCategory = errors.New("unknown category")

	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")

	// ===========================================
	// Authentication/Authorization Errors
	// ===========================================

	// ErrNotAuthenticated indicates the operation requires a logged-in user.
	ErrNotAuthenticated = errors.New("authentication required")

	// ErrNotAuthorized indicates the current user may not perform the operation.
	ErrNotAuthorized = errors.New("Not Authorized")

	// ===========================================
	// Session Errors
	// ===========================================

	// ErrSessionNotFound indicates the session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")

	// ===========================================
	// Infrastructure Errors
	// ===========================================

	// ErrStoreUnavailable indicates the persistence store failed.
	// Details are logged, never shown to users.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., listing id, username).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// ValidationError reports a single missing or malformed input field.
type ValidationError struct {
	// Field is the external (form/JSON) name of the offending field.
	Field string

	// Message is a user-facing description.
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MissingField creates the ValidationError reported when a required field is absent.
func MissingField(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Missing `%s` in request body", field),
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
