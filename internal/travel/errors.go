package travel

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData signals that no valid dataset could be built from the source
	ErrNoData = errors.New("no valid data")

	// ErrInvalidInput is the sentinel behind every malformed filter criterion
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSource is returned when a store has nothing to load from
	ErrNoSource = errors.New("no source configured")
)

// InputError names the criterion that failed to parse
type InputError struct {
	Field string
	Value string
	Cause error
}

// Error implements the error interface
func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// NoDataError wraps the reason a load produced no dataset.
type NoDataError struct {
	Reason string
	Cause  error
}

// Error implements the error interface
func (e *NoDataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrNoData, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrNoData, e.Reason)
}

// Is makes errors.Is(err, ErrNoData) hold for every NoDataError
func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// Unwrap exposes the underlying cause
func (e *NoDataError) Unwrap() error {
	return e.Cause
}

func noData(reason string, cause error) error {
	return &NoDataError{Reason: reason, Cause: cause}
}
