package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionError_UnwrapsToKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("assign: %w", InvalidState("assigned", "assigned"))

	require.ErrorIs(t, err, ErrInvalidState)
	require.NotErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "assigned", te.Current)
	require.Equal(t, "assigned", te.Requested)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := Validation("adresse_pickup", "must not be empty")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "adresse_pickup: must not be empty", err.Error())
	require.Equal(t, "bad", Validation("", "bad").Error())
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, FromContext(nil))

	err := FromContext(fmt.Errorf("query: %w", context.DeadlineExceeded))
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	plain := errors.New("boom")
	require.Same(t, plain, FromContext(plain))
}
