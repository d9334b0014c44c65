package models

import "time"

// ActivityKind classifies an audit feed entry
type ActivityKind string

const (
	ActivitySubscriptionActivated ActivityKind = "subscription_activated"
	ActivityReservationExpired    ActivityKind = "reservation_expired"
)

// ActivityEntry is an append-only audit record emitted by the pipeline
type ActivityEntry struct {
	ID             string
	OrganizationID string
	Kind           ActivityKind
	Message        string
	Metadata       map[string]string
	CreatedAt      time.Time
}
