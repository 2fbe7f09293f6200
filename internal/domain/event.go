package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies delivery events.
type EventType string

// Delivery event types.
const (
	EventCreated       EventType = "created"
	EventAssigned      EventType = "assigned"
	EventStatusChanged EventType = "status_changed"
)

// DeliveryEvent is emitted after every committed delivery mutation.
type DeliveryEvent struct {
	EventID    string
	DeliveryID int64
	Type       EventType
	From       *Status
	Status     Status
	ClientID   int64
	CourierID  *int64
	ActorID    int64
	ActorRole  Role
	OccurredAt time.Time
}

// Stats is the aggregate view served to managers.
type Stats struct {
	Deliveries        int
	ByStatus          map[Status]int
	Active            int
	Couriers          int
	CouriersBusy      int
	CouriersAvailable int
	Clients           int
	Revenue           decimal.Decimal
	GeneratedAt       time.Time
}
