package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across racebar.
var (
	// ErrInvalidInput is matched by every InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStyleResolution is matched by every StyleResolutionError.
	ErrStyleResolution = errors.New("style resolution failed")

	// ErrStaleResult reports that a frame build was superseded by a newer request.
	// It is advisory: the caller drops the result and keeps the newer one.
	ErrStaleResult = errors.New("stale result discarded")
)

// InvalidInputError aborts a tenure classification or frame build.
type InvalidInputError struct {
	Field  string // speed, max_bars, table, bucket, record
	Reason string
	Err    error // optional underlying decode error
}

// NewInvalidInput builds an InvalidInputError for a field.
func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Unwrap returns the underlying error, if any.
func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// StyleResolutionError records a color lookup that failed or timed out for one entity.
// The frame still builds; the entity gets DefaultColors.
type StyleResolutionError struct {
	EntityID string
	Err      error
}

// Error implements the error interface.
func (e *StyleResolutionError) Error() string {
	return fmt.Sprintf("style resolution failed for %q: %v", e.EntityID, e.Err)
}

// Is lets errors.Is match ErrStyleResolution.
func (e *StyleResolutionError) Is(target error) bool {
	return target == ErrStyleResolution
}

// Unwrap returns the lookup error.
func (e *StyleResolutionError) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether err is or wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
