package kafka

import (
	"errors"

	"moto-dispatch/internal/apperr"
)

// PermanentError marks a handler failure that will not go away on redelivery.
// The consumer commits the offset past such messages.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return "permanent: " + e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err; nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// IsPermanent reports whether redelivering the event can change the outcome.
// Domain rejections (bad payload, unknown delivery, illegal transition) are final.
func IsPermanent(err error) bool {
	var perm PermanentError
	if errors.As(err, &perm) {
		return true
	}
	return errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrInvalidTransition)
}
