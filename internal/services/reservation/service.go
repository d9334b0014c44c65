// Package reservation implements the seat reservation state machine:
// reserved -> active | expired | cancelled, with terminal states frozen.
// Every transition is a conditional database write, so concurrent actors
// race on the row itself rather than on application memory.
package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/pkg/observability"
)

// Config tunes reservation lifetimes
type Config struct {
	// TTL is the initial hold duration for a new reservation
	TTL time.Duration

	// ExtensionIncrement is how far one extension pushes the expiry forward
	ExtensionIncrement time.Duration

	// LowWaterMark gates extension: while more than this much TTL remains,
	// an extension request is a no-op
	LowWaterMark time.Duration

	// MaxLifetime caps the total hold measured from creation. Extensions
	// clamp to it, so a reservation cannot be kept reserved forever.
	MaxLifetime time.Duration

	// SweepInterval is the period of the background expiry sweep
	SweepInterval time.Duration
}

// DefaultConfig returns the production lifetimes
func DefaultConfig() Config {
	return Config{
		TTL:                15 * time.Minute,
		ExtensionIncrement: 10 * time.Minute,
		LowWaterMark:       5 * time.Minute,
		MaxLifetime:        2 * time.Hour,
		SweepInterval:      time.Minute,
	}
}

// Service implements the reservation lifecycle
type Service struct {
	db           ports.DBPort
	reservations ports.ReservationRepository
	plans        ports.PlanRepository
	activity     ports.ActivityRepository
	logger       ports.Logger
	cfg          Config
	now          func() time.Time
}

// NewService creates a new reservation service
func NewService(
	db ports.DBPort,
	reservations ports.ReservationRepository,
	plans ports.PlanRepository,
	activity ports.ActivityRepository,
	logger ports.Logger,
	cfg Config,
) *Service {
	if cfg.TTL <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		db:           db,
		reservations: reservations,
		plans:        plans,
		activity:     activity,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create reserves a seat on a plan, locking the plan's current list price
// onto the reservation. The lock is permanent: later list-price changes
// never touch this row.
func (s *Service) Create(ctx context.Context, organizationID, planID string) (*models.Reservation, error) {
	var reservation *models.Reservation

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		plan, err := s.plans.GetByID(ctx, tx, planID)
		if err != nil {
			return err
		}

		seat, err := s.reservations.NextSeatNumber(ctx, tx, planID)
		if err != nil {
			return fmt.Errorf("allocate seat number: %w", err)
		}
		if plan.SeatCapacity > 0 && seat > int64(plan.SeatCapacity) {
			return domain.ErrSeatsExhausted
		}

		now := s.now()
		expiresAt := now.Add(s.cfg.TTL)
		reservation = &models.Reservation{
			ID:             uuid.New().String(),
			SeatNumber:     seat,
			OrganizationID: organizationID,
			PlanID:         planID,
			LockedPrice:    plan.ListPrice,
			Currency:       plan.Currency,
			ExpiresAt:      &expiresAt,
			Status:         models.ReservationReserved,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.reservations.Create(ctx, tx, reservation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		ports.String("reservation_id", reservation.ID),
		ports.String("plan_id", planID),
		ports.Int64("seat_number", reservation.SeatNumber),
		ports.String("locked_price", reservation.LockedPrice.String()),
	)
	observability.RecordReservationCreated(planID)
	return reservation, nil
}

// Get loads a reservation, expiring it lazily when its TTL has lapsed.
// Readers therefore never observe a live reservation past its expiry even
// between sweep runs.
func (s *Service) Get(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	if reservation.IsExpired(s.now()) {
		if err := s.expireNow(ctx, reservation); err != nil {
			return nil, err
		}
	}
	return reservation, nil
}

// Extend pushes a reservation's expiry forward. Only allowed while the
// reservation is still alive and its remaining TTL is below the low-water
// mark; above it the call is a no-op returning the current state. The new
// expiry is clamped to MaxLifetime from creation.
func (s *Service) Extend(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if reservation.IsExpired(now) {
		if err := s.expireNow(ctx, reservation); err != nil {
			return nil, err
		}
		return nil, domain.ErrReservationExpired
	}
	if reservation.Status != models.ReservationReserved {
		return nil, domain.ErrReservationInvalidState
	}

	if reservation.RemainingTTL(now) > s.cfg.LowWaterMark {
		return reservation, nil
	}

	newExpiry := now.Add(s.cfg.ExtensionIncrement)
	if ceiling := reservation.CreatedAt.Add(s.cfg.MaxLifetime); newExpiry.After(ceiling) {
		newExpiry = ceiling
	}
	if reservation.ExpiresAt != nil && !newExpiry.After(*reservation.ExpiresAt) {
		// Already at the lifetime ceiling, nothing left to grant
		return reservation, nil
	}

	extended, err := s.reservations.ExtendExpiry(ctx, nil, id, newExpiry)
	if err != nil {
		return nil, err
	}
	if !extended {
		// Lost a race with activation, expiry, or cancellation
		return s.reservations.GetByID(ctx, nil, id)
	}

	reservation.ExpiresAt = &newExpiry
	s.logger.Info("Reservation extended",
		ports.String("reservation_id", id),
		ports.String("expires_at", newExpiry.UTC().Format(time.RFC3339)),
	)
	observability.RecordReservationExtended(reservation.PlanID)
	return reservation, nil
}

// Cancel moves a reserved reservation to cancelled. Cancelling an already
// terminal reservation fails with InvalidState.
func (s *Service) Cancel(ctx context.Context, id string) error {
	cancelled, err := s.reservations.Cancel(ctx, nil, id)
	if err != nil {
		return err
	}
	if !cancelled {
		return domain.ErrReservationInvalidState
	}
	s.logger.Info("Reservation cancelled", ports.String("reservation_id", id))
	return nil
}

// Sweep expires every reservation past its TTL and returns how many rows
// were swept
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	swept, err := s.reservations.ExpireOverdue(ctx, nil, s.now())
	if err != nil {
		return 0, fmt.Errorf("expiry sweep: %w", err)
	}
	if swept > 0 {
		s.logger.Info("Expired overdue reservations", ports.Int64("count", swept))
		observability.RecordReservationsSwept(swept)
	}
	return swept, nil
}

// RunSweeper runs the expiry sweep on SweepInterval until the context is
// cancelled
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("Expiry sweep failed", ports.Err(err))
			}
		}
	}
}

// expireNow performs the lazy reserved -> expired transition for a
// reservation observed past its TTL. A lost race means someone else already
// transitioned the row; the fresh state is copied back.
func (s *Service) expireNow(ctx context.Context, reservation *models.Reservation) error {
	expired, err := s.reservations.Expire(ctx, nil, reservation.ID)
	if err != nil {
		return err
	}
	if !expired {
		fresh, err := s.reservations.GetByID(ctx, nil, reservation.ID)
		if err != nil {
			return err
		}
		*reservation = *fresh
		return nil
	}

	reservation.Status = models.ReservationExpired
	if err := s.activity.Insert(ctx, nil, &models.ActivityEntry{
		ID:             uuid.New().String(),
		OrganizationID: reservation.OrganizationID,
		Kind:           models.ActivityReservationExpired,
		Message:        "seat reservation expired before payment",
		Metadata: map[string]string{
			"reservation_id": reservation.ID,
			"plan_id":        reservation.PlanID,
		},
	}); err != nil {
		s.logger.Warn("Failed to record expiry activity",
			ports.String("reservation_id", reservation.ID), ports.Err(err))
	}
	observability.RecordReservationsSwept(1)
	return nil
}
