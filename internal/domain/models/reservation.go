package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle state of a seat reservation
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationActive    ReservationStatus = "active"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationActive || s == ReservationExpired || s == ReservationCancelled
}

// Reservation is a time-bounded, price-locked claim on a plan seat.
// LockedPrice is set once at creation and never mutated; list-price changes
// on the plan have no effect on existing reservations. Rows are never
// deleted, expired and cancelled reservations stay for audit.
type Reservation struct {
	ID               string
	SeatNumber       int64
	OrganizationID   string
	PlanID           string
	LockedPrice      decimal.Decimal
	Currency         string
	PaymentReference string // set when a checkout session is built
	ExpiresAt        *time.Time
	Status           ReservationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsExpired reports whether the reservation's TTL has lapsed.
// A reservation without an expiry never expires by time.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationReserved && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RemainingTTL returns the time left before expiry, zero if already past
func (r *Reservation) RemainingTTL(now time.Time) time.Duration {
	if r.ExpiresAt == nil {
		return 0
	}
	if remaining := r.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// AmountMinorUnits converts the locked price to provider minor units
// (price * 100, exact decimal arithmetic, rounded to the nearest unit)
func (r *Reservation) AmountMinorUnits() int64 {
	return r.LockedPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
