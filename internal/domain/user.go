package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is the authoritative permission class of a user.
type Role string

// Known roles. The courier role keeps its historical wire name.
const (
	RoleClient  Role = "client"
	RoleCourier Role = "livreur"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var allowedRoles = [...]Role{RoleClient, RoleCourier, RoleManager, RoleAdmin}

// Valid checks if the Role is known.
func (r Role) Valid() bool {
	for _, v := range allowedRoles {
		if r == v {
			return true
		}
	}
	return false
}

// IsStaff reports whether r may assign couriers and cancel any delivery.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// ParseRole resolves a wire role, accepting "courier" as an alias of livreur.
func ParseRole(raw string) (Role, bool) {
	v := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch {
	case v == "courier":
		return RoleCourier, true
	case v.Valid():
		return v, true
	default:
		return "", false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role Role
}

// User is a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Address      string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// Actor returns the user as an operation actor.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Courier availability, derived from active missions and never stored.
const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
)

// UserSummary is the listing view of a user.
type UserSummary struct {
	User
	TotalDeliveries  int
	ActiveDeliveryID *int64
}

// Availability is meaningful for couriers only.
func (s UserSummary) Availability() string {
	if s.ActiveDeliveryID != nil {
		return AvailabilityBusy
	}
	return AvailabilityAvailable
}

var rePhone = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// NormalizePhone strips separators users commonly type.
func NormalizePhone(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(s))
}

// ValidatePhone validates a normalized phone number.
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
