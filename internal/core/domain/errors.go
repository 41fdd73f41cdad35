package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNewsNotFound       = errors.New("news not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrMissingImage       = errors.New("image is required")
	ErrInvalidImage       = errors.New("invalid image")
)

// ValidationError carries per-field messages rendered as {"errors": {...}}.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// WithCause attaches the underlying error so errors.Is keeps matching it.
func (e *ValidationError) WithCause(err error) *ValidationError {
	e.cause = err
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.cause }
