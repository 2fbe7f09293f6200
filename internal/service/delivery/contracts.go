//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=delivery_test

package delivery

import (
	"context"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/ports/deliverytx"
)

// Store is the delivery record store. Every mutation after creation goes through WithTx.
type Store interface {
	deliverytx.Runner
	Create(ctx context.Context, d *domain.Delivery, actor domain.Actor) error
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Delivery, error)
	ListByCourier(ctx context.Context, courierID int64) ([]domain.Delivery, error)
	ListAll(ctx context.Context) ([]domain.Delivery, error)
	History(ctx context.Context, id int64) ([]domain.StatusChange, error)
}

// Pricer quotes a price for a pair of addresses.
type Pricer interface {
	Quote(ctx context.Context, pickup, dropoff string) (domain.Quote, error)
}

// EventSink receives committed delivery events.
type EventSink interface {
	Publish(ctx context.Context, ev domain.DeliveryEvent) error
}

// Metrics counts lifecycle activity.
type Metrics interface {
	TransitionApplied(from, to domain.Status)
	AssignmentAttempt(outcome string)
}
