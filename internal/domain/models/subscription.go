package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the current state of a subscription
type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is the derived snapshot of an organization's paid plan.
// One live row per organization; it is created or refreshed only as a side
// effect of a reservation activating, always with the reservation's locked
// price, never the plan's current list price.
type Subscription struct {
	ID             string
	OrganizationID string
	PlanID         string
	Price          decimal.Decimal
	Currency       string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         SubscriptionStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
