package domain

import "strings"

// Status is the lifecycle state of a delivery.
type Status string

// Canonical delivery statuses.
const (
	StatusPending        Status = "pending"
	StatusAssigned       Status = "assigned"
	StatusEnRoutePickup  Status = "en_route_pickup"
	StatusPickedUp       Status = "picked_up"
	StatusEnRouteDropoff Status = "en_route_dropoff"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var allStatuses = [...]Status{
	StatusPending,
	StatusAssigned,
	StatusEnRoutePickup,
	StatusPickedUp,
	StatusEnRouteDropoff,
	StatusDelivered,
	StatusCancelled,
}

// ActiveStatuses are the states in which a courier is engaged on a mission.
var ActiveStatuses = []Status{
	StatusAssigned,
	StatusEnRoutePickup,
	StatusPickedUp,
	StatusEnRouteDropoff,
}

// statusAliases maps every vocabulary seen on the wire to the canonical status.
// Older clients send the French labels or the first English draft names.
var statusAliases = map[string]Status{
	"en_attente":         StatusPending,
	"attente":            StatusPending,
	"assigne":            StatusAssigned,
	"assigné":            StatusAssigned,
	"pickup_in_progress": StatusEnRoutePickup,
	"en_route_recup":     StatusEnRoutePickup,
	"recupere":           StatusPickedUp,
	"récupéré":           StatusPickedUp,
	"in_transit":         StatusEnRouteDropoff,
	"en_livraison":       StatusEnRouteDropoff,
	"livre":              StatusDelivered,
	"livré":              StatusDelivered,
	"annule":             StatusCancelled,
	"annulé":             StatusCancelled,
	"canceled":           StatusCancelled,
}

// ParseStatus resolves a wire value, canonical or alias, to a Status.
func ParseStatus(raw string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}
	if s := Status(v); s.Valid() {
		return s, true
	}
	s, ok := statusAliases[v]
	return s, ok
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsActive reports whether a courier is engaged while the delivery is in s.
func (s Status) IsActive() bool {
	for _, v := range ActiveStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Statuses returns the canonical statuses in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses[:])
	return out
}

func (s Status) String() string { return string(s) }
