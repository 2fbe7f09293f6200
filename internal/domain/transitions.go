package domain

// Edge is a directed transition between two statuses.
type Edge struct {
	From Status
	To   Status
}

// EdgeRule describes who may walk an edge.
type EdgeRule struct {
	// Roles allowed to take the edge regardless of ownership.
	Roles []Role
	// AssignedCourier allows the courier currently assigned to the delivery.
	AssignedCourier bool
	// OwnerWhilePending allows the owning client, only out of pending.
	OwnerWhilePending bool
	// AssignmentOnly marks edges that only the assignment operation may take.
	AssignmentOnly bool
}

var staffRoles = []Role{RoleManager, RoleAdmin}

var cancelRule = EdgeRule{Roles: staffRoles, OwnerWhilePending: true}

var transitions = map[Edge]EdgeRule{
	{StatusPending, StatusAssigned}:         {Roles: staffRoles, AssignmentOnly: true},
	{StatusAssigned, StatusEnRoutePickup}:   {AssignedCourier: true},
	{StatusEnRoutePickup, StatusPickedUp}:   {AssignedCourier: true},
	{StatusPickedUp, StatusEnRouteDropoff}:  {AssignedCourier: true},
	{StatusEnRouteDropoff, StatusDelivered}: {AssignedCourier: true},
	{StatusPending, StatusCancelled}:        cancelRule,
	{StatusAssigned, StatusCancelled}:       cancelRule,
	{StatusEnRoutePickup, StatusCancelled}:  cancelRule,
	{StatusPickedUp, StatusCancelled}:       cancelRule,
	{StatusEnRouteDropoff, StatusCancelled}: cancelRule,
}

// LookupTransition returns the rule for from -> to, if such an edge exists.
// Self-loops and edges leaving a terminal state never exist.
func LookupTransition(from, to Status) (EdgeRule, bool) {
	rule, ok := transitions[Edge{From: from, To: to}]
	return rule, ok
}

// NextStatuses lists every status reachable from s in one step.
func NextStatuses(s Status) []Status {
	out := make([]Status, 0, 2)
	for _, to := range allStatuses {
		if _, ok := transitions[Edge{From: s, To: to}]; ok {
			out = append(out, to)
		}
	}
	return out
}

// Forward returns the next status on the delivery path, ignoring cancellation.
func Forward(s Status) (Status, bool) {
	for _, to := range NextStatuses(s) {
		if to != StatusCancelled {
			return to, true
		}
	}
	return "", false
}

// Allows reports whether actor may take this edge on d.
func (r EdgeRule) Allows(actor Actor, d *Delivery) bool {
	for _, role := range r.Roles {
		if actor.Role == role {
			return true
		}
	}
	if d == nil {
		return false
	}
	if r.AssignedCourier && actor.Role == RoleCourier &&
		d.CourierID != nil && *d.CourierID == actor.ID {
		return true
	}
	if r.OwnerWhilePending && actor.Role == RoleClient &&
		d.ClientID == actor.ID && d.Status == StatusPending {
		return true
	}
	return false
}
