package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	ErrUnknownRegion            = errors.New("unknown region")
	ErrUnmappableGenerationType = errors.New("unmappable generation type")
	ErrNoMatchingData           = errors.New("no matching external data")
	ErrExternalTransport        = errors.New("external transport error")
	ErrInvalidSeries            = errors.New("invalid series")
	ErrConstraintCreation       = errors.New("constraint creation failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// SeriesError reports why a series was rejected before any write.
type SeriesError struct {
	Reason string
}

func (e *SeriesError) Error() string {
	return "invalid series: " + e.Reason
}

func (e *SeriesError) Unwrap() error { return ErrInvalidSeries }

// UnknownRegionError is returned when a region code is absent from the
// reference data. It points at a reference-data bug, not a transient failure.
type UnknownRegionError struct {
	Code string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("region %q not found in reference data", e.Code)
}

func (e *UnknownRegionError) Unwrap() error { return ErrUnknownRegion }

// TransportError wraps a failure talking to the external data provider.
type TransportError struct {
	Region string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Region, e.Err)
}

// Is reports ErrExternalTransport so callers can match on the kind.
func (e *TransportError) Is(target error) bool { return target == ErrExternalTransport }

func (e *TransportError) Unwrap() error { return e.Err }
