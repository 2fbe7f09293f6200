package deliverytx

import (
	"context"

	"moto-dispatch/internal/domain"
)

// Repository is the view of the store available inside a transaction.
type Repository interface {
	// GetForUpdate locks the delivery row; (nil, nil) when absent.
	GetForUpdate(ctx context.Context, id int64) (*domain.Delivery, error)
	// LockCourier locks the user row of a would-be courier; (nil, nil) when absent.
	LockCourier(ctx context.Context, userID int64) (*domain.User, error)
	CountActiveByCourier(ctx context.Context, courierID int64) (int, error)
	// ApplyMutation compare-and-swaps the status and appends the history entry.
	ApplyMutation(ctx context.Context, id int64, m domain.Mutation) (*domain.Delivery, error)
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
