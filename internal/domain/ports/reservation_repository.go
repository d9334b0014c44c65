package ports

import (
	"context"
	"time"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// ReservationRepository persists seat reservations.
// All state transitions are conditional writes against the current status,
// never read-then-write from application memory. The conditional update on
// status='reserved' is the single serialization point of the whole
// pipeline.
type ReservationRepository interface {
	// Create inserts a new reservation in the reserved state
	Create(ctx context.Context, tx DBTX, reservation *models.Reservation) error

	// GetByID loads a reservation
	GetByID(ctx context.Context, db DBTX, id string) (*models.Reservation, error)

	// SetPaymentReference stores the checkout reference generated at
	// session-build time so the reconciler can resolve the reservation later
	SetPaymentReference(ctx context.Context, tx DBTX, id, reference string) error

	// Activate performs the reserved -> active compare-and-set, clearing the
	// expiry. Returns false when the row was not in the reserved state, which
	// callers must treat as a successful no-op.
	Activate(ctx context.Context, tx DBTX, id string) (bool, error)

	// Expire performs the reserved -> expired compare-and-set
	Expire(ctx context.Context, tx DBTX, id string) (bool, error)

	// Cancel performs the reserved -> cancelled compare-and-set
	Cancel(ctx context.Context, tx DBTX, id string) (bool, error)

	// ExtendExpiry pushes the expiry forward, only while still reserved
	ExtendExpiry(ctx context.Context, tx DBTX, id string, expiresAt time.Time) (bool, error)

	// ExpireOverdue moves every reserved row past its expiry to expired and
	// returns how many rows were swept
	ExpireOverdue(ctx context.Context, db DBTX, now time.Time) (int64, error)

	// NextSeatNumber allocates the next seat sequence number for a plan
	NextSeatNumber(ctx context.Context, tx DBTX, planID string) (int64, error)
}
