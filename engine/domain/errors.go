// Package domain defines the core wire types shared across agents: the
// parcel envelope, agent lifecycle, and the error taxonomy every component
// reports through.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bus-level and service-level failure taxonomy.
var (
	ErrTimeout              = errors.New("timeout")
	ErrTransport            = errors.New("transport")
	ErrLLMInvalidResponse   = errors.New("llm: invalid response")
	ErrKGQueryFailed        = errors.New("kg: query failed")
	ErrNoConcepts           = errors.New("no concepts")
	ErrNoTextMaterials      = errors.New("no text materials")
	ErrPageExtractionFailed = errors.New("page extraction failed")
	ErrConfig               = errors.New("config error")
	ErrFileIO               = errors.New("file io error")
)

// ValidationError wraps a sentinel with the field/value that triggered it.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
