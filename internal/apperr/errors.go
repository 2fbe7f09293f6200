package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when the input fails domain validation.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized means the caller could not be authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the actor may not perform the operation on the target.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates that the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is an edge missing from the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidState means the operation requires a different current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrCourierBusy means the courier already has an active mission.
	ErrCourierBusy = errors.New("courier busy")
	// ErrConflict indicates a uniqueness or concurrent-update conflict (HTTP 409).
	ErrConflict = errors.New("conflict")
	// ErrTimeout means a bounded operation ran out of time.
	ErrTimeout = errors.New("timeout")
	// ErrZoneNotFound means no active zone matches the addresses.
	ErrZoneNotFound = errors.New("zone not found")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransitionError carries the current and requested status so callers can resync.
type TransitionError struct {
	Kind      error
	Current   string
	Requested string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Kind, e.Current, e.Requested)
}

func (e *TransitionError) Unwrap() error { return e.Kind }

// InvalidTransition reports an edge absent from the lifecycle graph.
func InvalidTransition(current, requested string) error {
	return &TransitionError{Kind: ErrInvalidTransition, Current: current, Requested: requested}
}

// InvalidState reports an operation attempted from the wrong state.
func InvalidState(current, requested string) error {
	return &TransitionError{Kind: ErrInvalidState, Current: current, Requested: requested}
}

// FromContext maps an expired deadline to ErrTimeout and leaves other errors as is.
func FromContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
