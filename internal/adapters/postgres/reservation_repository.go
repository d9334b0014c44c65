package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

// ReservationRepository implements ports.ReservationRepository with pgx.
// Every state transition is a conditional UPDATE guarded on the current
// status, so concurrent reconciliations serialize on the row itself.
type ReservationRepository struct {
	db ports.DBPort
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db ports.DBPort) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new reservation in the reserved state
func (r *ReservationRepository) Create(ctx context.Context, tx ports.DBTX, reservation *models.Reservation) error {
	id, err := uuid.Parse(reservation.ID)
	if err != nil {
		return fmt.Errorf("invalid reservation ID: %w", err)
	}
	planID, err := uuid.Parse(reservation.PlanID)
	if err != nil {
		return fmt.Errorf("invalid plan ID: %w", err)
	}
	price, err := decimalToPgNumeric(reservation.LockedPrice)
	if err != nil {
		return fmt.Errorf("convert locked price: %w", err)
	}

	q := executor(r.db.GetDB(), tx)
	_, err = q.Exec(ctx, `
		INSERT INTO reservations (
			id, seat_number, organization_id, plan_id, locked_price, currency,
			payment_reference, expires_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`,
		id,
		reservation.SeatNumber,
		reservation.OrganizationID,
		planID,
		price,
		reservation.Currency,
		nullText(reservation.PaymentReference),
		nullTime(reservation.ExpiresAt),
		string(reservation.Status),
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID loads a reservation
func (r *ReservationRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*models.Reservation, error) {
	reservationID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrReservationNotFound.WithDetail("id", id)
	}

	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT id, seat_number, organization_id, plan_id, locked_price, currency,
		       payment_reference, expires_at, status, created_at, updated_at
		FROM reservations
		WHERE id = $1`,
		reservationID,
	)
	return scanReservation(row)
}

// SetPaymentReference stores the checkout reference generated at
// session-build time
func (r *ReservationRepository) SetPaymentReference(ctx context.Context, tx ports.DBTX, id, ref string) error {
	reservationID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid reservation ID: %w", err)
	}

	q := executor(r.db.GetDB(), tx)
	tag, err := q.Exec(ctx, `
		UPDATE reservations
		SET payment_reference = $2, updated_at = now()
		WHERE id = $1`,
		reservationID, ref,
	)
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound.WithDetail("id", id)
	}
	return nil
}

// Activate performs the reserved -> active compare-and-set. The WHERE
// clause on status is the single serialization point for the whole
// activation pipeline: exactly one concurrent caller sees RowsAffected=1.
func (r *ReservationRepository) Activate(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	return r.transition(ctx, tx, id, models.ReservationActive, true)
}

// Expire performs the reserved -> expired compare-and-set
func (r *ReservationRepository) Expire(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	return r.transition(ctx, tx, id, models.ReservationExpired, false)
}

// Cancel performs the reserved -> cancelled compare-and-set
func (r *ReservationRepository) Cancel(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	return r.transition(ctx, tx, id, models.ReservationCancelled, false)
}

func (r *ReservationRepository) transition(ctx context.Context, tx ports.DBTX, id string, to models.ReservationStatus, clearExpiry bool) (bool, error) {
	reservationID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("invalid reservation ID: %w", err)
	}

	query := `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'reserved'`
	if clearExpiry {
		query = `
		UPDATE reservations
		SET status = $2, expires_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'reserved'`
	}

	q := executor(r.db.GetDB(), tx)
	tag, err := q.Exec(ctx, query, reservationID, string(to))
	if err != nil {
		return false, fmt.Errorf("transition reservation to %s: %w", to, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExtendExpiry pushes the expiry forward, only while still reserved
func (r *ReservationRepository) ExtendExpiry(ctx context.Context, tx ports.DBTX, id string, expiresAt time.Time) (bool, error) {
	reservationID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("invalid reservation ID: %w", err)
	}

	q := executor(r.db.GetDB(), tx)
	tag, err := q.Exec(ctx, `
		UPDATE reservations
		SET expires_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'reserved'`,
		reservationID, expiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("extend reservation expiry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireOverdue sweeps every reserved row past its expiry. The status
// guard makes the sweep safe to race with activation.
func (r *ReservationRepository) ExpireOverdue(ctx context.Context, db ports.DBTX, now time.Time) (int64, error) {
	q := executor(r.db.GetDB(), db)
	tag, err := q.Exec(ctx, `
		UPDATE reservations
		SET status = 'expired', updated_at = now()
		WHERE status = 'reserved' AND expires_at IS NOT NULL AND expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NextSeatNumber allocates the next seat sequence number for a plan
func (r *ReservationRepository) NextSeatNumber(ctx context.Context, tx ports.DBTX, planID string) (int64, error) {
	id, err := uuid.Parse(planID)
	if err != nil {
		return 0, fmt.Errorf("invalid plan ID: %w", err)
	}

	q := executor(r.db.GetDB(), tx)
	var next int64
	err = q.QueryRow(ctx, `
		SELECT COALESCE(MAX(seat_number), 0) + 1
		FROM reservations
		WHERE plan_id = $1`,
		id,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next seat number: %w", err)
	}
	return next, nil
}

// scanReservation converts a row into the domain model
func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var (
		id        uuid.UUID
		planID    uuid.UUID
		price     pgtype.Numeric
		payRef    pgtype.Text
		expiresAt pgtype.Timestamptz
		status    string
		res       models.Reservation
	)
	err := row.Scan(
		&id, &res.SeatNumber, &res.OrganizationID, &planID, &price, &res.Currency,
		&payRef, &expiresAt, &status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}

	lockedPrice, err := pgNumericToDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("convert locked price: %w", err)
	}

	res.ID = id.String()
	res.PlanID = planID.String()
	res.LockedPrice = lockedPrice
	res.PaymentReference = payRef.String
	res.ExpiresAt = timePtr(expiresAt)
	res.Status = models.ReservationStatus(status)
	return &res, nil
}
