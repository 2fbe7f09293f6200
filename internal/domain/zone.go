package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Zone is a named geographic pricing unit.
type Zone struct {
	ID             int64
	Name           string
	AreaDescriptor string
	Price          decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
