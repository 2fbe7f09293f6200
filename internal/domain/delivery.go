package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PackageType is the kind of parcel carried.
type PackageType string

// Canonical package types.
const (
	PackageDocument PackageType = "document"
	PackageMeal     PackageType = "meal"
	PackageItem     PackageType = "item"
	PackageOther    PackageType = "other"
)

var packageAliases = map[string]PackageType{
	"document":   PackageDocument,
	"documents":  PackageDocument,
	"meal":       PackageMeal,
	"nourriture": PackageMeal,
	"repas":      PackageMeal,
	"food":       PackageMeal,
	"item":       PackageItem,
	"colis":      PackageItem,
	"objet":      PackageItem,
	"package":    PackageItem,
	"parcel":     PackageItem,
	"other":      PackageOther,
	"autre":      PackageOther,
}

// ParsePackageType canonicalizes the package type names used by every client revision.
func ParsePackageType(raw string) (PackageType, bool) {
	t, ok := packageAliases[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}

// Delivery is one transport request from a pickup address to a dropoff address.
type Delivery struct {
	ID             int64
	ClientID       int64
	CourierID      *int64
	PackageType    PackageType
	PickupAddress  string
	DropoffAddress string
	Description    string
	Status         Status
	Price          decimal.Decimal
	ZoneID         *int64
	// DefaultPriced is set when no zone matched and the flat rate was applied.
	DefaultPriced bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy safe to hand out of a store.
func (d Delivery) Clone() Delivery {
	out := d
	if d.CourierID != nil {
		v := *d.CourierID
		out.CourierID = &v
	}
	if d.ZoneID != nil {
		v := *d.ZoneID
		out.ZoneID = &v
	}
	return out
}

// AssignedTo reports whether courierID is (or was) the delivery's courier.
func (d Delivery) AssignedTo(courierID int64) bool {
	return d.CourierID != nil && *d.CourierID == courierID
}

// Mutation is the full change applied to a delivery in one atomic step.
type Mutation struct {
	// Expected is the status the caller read; the store refuses the change otherwise.
	Expected Status
	Status   Status
	// CourierID is only set by assignment.
	CourierID *int64
	Actor     Actor
	At        time.Time
}

// StatusChange is one entry of a delivery's status history.
type StatusChange struct {
	DeliveryID int64
	From       *Status
	To         Status
	ActorID    int64
	ActorRole  Role
	At         time.Time
}

// Quote is the price resolved for a pair of addresses.
type Quote struct {
	Price     decimal.Decimal
	ZoneID    *int64
	ZoneName  string
	Defaulted bool
}
