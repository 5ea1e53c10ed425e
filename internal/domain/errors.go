package domain

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a failed external gauge or forecast fetch.
// Callers at the orchestrator boundary treat it as "no data" for the cycle.
var ErrSourceUnavailable = errors.New("external source unavailable")

// ErrNotFound marks a missing record in a store.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed numeric or geometric input to one of
// the engines. It is raised for contract violations only; missing optional
// data is a documented neutral default, never a ValidationError.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validatef builds a ValidationError for a field.
func Validatef(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
