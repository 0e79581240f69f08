package salesdash

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("salesdash: unsupported file format")

	// ErrInvalidData indicates malformed or invalid data
	ErrInvalidData = errors.New("salesdash: invalid data format")

	// ErrEmptyData indicates that the data source contains no header row
	ErrEmptyData = errors.New("salesdash: empty data source")

	// ErrFileNotFound indicates file not found
	ErrFileNotFound = errors.New("salesdash: file not found")

	// ErrPermissionDenied indicates permission denied
	ErrPermissionDenied = errors.New("salesdash: permission denied")

	// ErrNoMatch indicates that a geocoder found no location for a query
	ErrNoMatch = errors.New("salesdash: no geocoding match")

	// ErrInvalidSelection indicates a malformed filter selection
	ErrInvalidSelection = errors.New("salesdash: invalid selection")

	// ErrContextCancelled indicates context was cancelled
	ErrContextCancelled = errors.New("salesdash: context cancelled")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("salesdash: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
