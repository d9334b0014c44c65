package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable tier. ListPrice is the price new reservations lock
// in; changing it never affects reservations already holding a locked price.
type Plan struct {
	ID           string
	Name         string
	ListPrice    decimal.Decimal
	Currency     string
	PeriodDays   int
	SeatCapacity int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
