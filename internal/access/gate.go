// Package access decides which actor may run which operation on which delivery.
package access

import (
	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
)

// Operation is something an actor asks to do.
type Operation string

// Operations checked by the gate.
const (
	OpCreateDelivery Operation = "create_delivery"
	OpReadDelivery   Operation = "read_delivery"
	OpListAll        Operation = "list_all"
	OpListOwn        Operation = "list_own"
	OpAssign         Operation = "assign"
	OpAdvance        Operation = "advance"
	OpCancel         Operation = "cancel"
	OpListUsers      Operation = "list_users"
	OpListAllUsers   Operation = "list_all_users"
	OpManageUsers    Operation = "manage_users"
	OpViewStats      Operation = "view_stats"
)

type rule func(actor domain.Actor, target *domain.Delivery) bool

func roles(rs ...domain.Role) rule {
	return func(a domain.Actor, _ *domain.Delivery) bool {
		for _, r := range rs {
			if a.Role == r {
				return true
			}
		}
		return false
	}
}

var (
	staffOnly = roles(domain.RoleManager, domain.RoleAdmin)
	adminOnly = roles(domain.RoleAdmin)
)

// canRead: the owning client, the courier assigned now or before, and staff.
func canRead(a domain.Actor, d *domain.Delivery) bool {
	if d == nil {
		return false
	}
	switch a.Role {
	case domain.RoleManager, domain.RoleAdmin:
		return true
	case domain.RoleClient:
		return d.ClientID == a.ID
	case domain.RoleCourier:
		return d.AssignedTo(a.ID)
	default:
		return false
	}
}

// edge builds a rule from the lifecycle table for the edge leaving the target's
// current status towards next(current).
func edge(next func(domain.Status) (domain.Status, bool)) rule {
	return func(a domain.Actor, d *domain.Delivery) bool {
		if d == nil {
			return false
		}
		to, ok := next(d.Status)
		if !ok {
			return false
		}
		r, ok := domain.LookupTransition(d.Status, to)
		if !ok || r.AssignmentOnly {
			return false
		}
		return r.Allows(a, d)
	}
}

func toCancelled(domain.Status) (domain.Status, bool) { return domain.StatusCancelled, true }

var table = map[Operation]rule{
	OpCreateDelivery: roles(domain.RoleClient, domain.RoleManager, domain.RoleAdmin),
	OpReadDelivery:   canRead,
	OpListAll:        staffOnly,
	OpListOwn:        roles(domain.RoleClient, domain.RoleCourier),
	OpAssign:         staffOnly,
	OpAdvance:        edge(domain.Forward),
	OpCancel:         edge(toCancelled),
	OpListUsers:      staffOnly,
	OpListAllUsers:   adminOnly,
	OpManageUsers:    adminOnly,
	OpViewStats:      staffOnly,
}

// Authorize returns nil when actor may perform op on target and apperr.ErrForbidden
// otherwise. target is nil for operations that do not address a single delivery.
func Authorize(actor domain.Actor, op Operation, target *domain.Delivery) error {
	if actor.ID <= 0 || !actor.Role.Valid() {
		return apperr.ErrForbidden
	}
	r, ok := table[op]
	if !ok || !r(actor, target) {
		return apperr.ErrForbidden
	}
	return nil
}

// OperationFor maps a requested status to the operation that reaches it.
func OperationFor(to domain.Status) Operation {
	switch to {
	case domain.StatusAssigned:
		return OpAssign
	case domain.StatusCancelled:
		return OpCancel
	default:
		return OpAdvance
	}
}
