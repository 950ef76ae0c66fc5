// Package common holds error kinds shared across the repository, service,
// and handler layers.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when a sign-up targets an email that is
	// already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both password and quick-access code
	// mismatches. Unknown email and wrong credential are deliberately not
	// distinguished, so failed sign-ins cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is the store-level miss. It should not normally reach
	// presentation callers.
	ErrNotFound = errors.New("not found")

	// ErrNoRememberedDevice is returned when the quick-access path is taken
	// but no remembered-device record exists.
	ErrNoRememberedDevice = errors.New("no remembered device")

	// ErrNotAuthenticated is returned for vault operations outside an
	// authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidState is returned when a session transition is requested
	// from a state it is not valid in. The state is left unchanged.
	ErrInvalidState = errors.New("operation not valid in current state")
)

// FieldError names one violated input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every violated input rule of one operation in a
// single error, not just the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error formats all violated rules as "field: message" pairs.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records one violated rule.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns the collected error, or nil when no rule was violated.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
