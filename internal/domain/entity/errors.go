package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations. The handler layer maps these
// (via errors.Is) onto the HTTP status codes named in spec.md §7.
var (
	// ErrNotFound indicates that a requested channel/feed/item was not found.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed.
	ErrValidationFailed = errors.New("validation failed")

	// ErrConflict indicates a duplicate subscription or similar conflict.
	// Per spec.md §7 this maps to an idempotent success, not an HTTP error,
	// at the usecase boundary — callers should treat it as "already done".
	ErrConflict = errors.New("conflict")

	// ErrUpstream indicates a fetch failure, hub refusal, or parser failure.
	ErrUpstream = errors.New("upstream error")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// UpstreamError carries the upstream failure kind (http, timeout, parse, hub)
// alongside the optional HTTP status code that caused it.
type UpstreamError struct {
	Kind   string // "http", "timeout", "parse", "hub"
	Status int    // HTTP status code, when Kind == "http"
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error (%s, status=%d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("upstream error (%s): %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
