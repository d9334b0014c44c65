// Package reconciler settles provider transactions against reservations.
// It never trusts an inbound notification's payload for money state: the
// provider's API (or signed event body) is re-read, the status mapped, and
// the reservation activated through a conditional write so that a webhook,
// a redirect callback, and a manual poll can all settle the same payment
// concurrently and exactly one of them activates.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/gateway"
	"github.com/seatflow/checkout-service/internal/reference"
	"github.com/seatflow/checkout-service/pkg/observability"
)

// Outcome reports what a reconciliation concluded
type Outcome struct {
	ReservationID string
	Status        models.TransactionStatus
	// Activated is true only for the reconciliation that won the
	// reserved -> active race. Replays of an already settled payment
	// succeed with Activated false.
	Activated bool
}

// Service implements payment reconciliation
type Service struct {
	db            ports.DBPort
	reservations  ports.ReservationRepository
	transactions  ports.TransactionRepository
	subscriptions ports.SubscriptionRepository
	plans         ports.PlanRepository
	activity      ports.ActivityRepository
	configs       ports.GatewayConfigRepository
	factory       *gateway.Factory
	logger        ports.Logger
	now           func() time.Time
}

// NewService creates a new reconciler
func NewService(
	db ports.DBPort,
	reservations ports.ReservationRepository,
	transactions ports.TransactionRepository,
	subscriptions ports.SubscriptionRepository,
	plans ports.PlanRepository,
	activity ports.ActivityRepository,
	configs ports.GatewayConfigRepository,
	factory *gateway.Factory,
	logger ports.Logger,
) *Service {
	return &Service{
		db:            db,
		reservations:  reservations,
		transactions:  transactions,
		subscriptions: subscriptions,
		plans:         plans,
		activity:      activity,
		configs:       configs,
		factory:       factory,
		logger:        logger,
		now:           time.Now,
	}
}

// Reconcile settles one provider transaction. hintedReservationID may be
// empty; the reservation is then resolved from the reference embedded in
// the provider's response. Safe to call any number of times for the same
// transaction.
func (s *Service) Reconcile(ctx context.Context, provider models.Provider, providerTxnID, hintedReservationID string) (*Outcome, error) {
	cfg, err := s.configs.GetActiveByProvider(ctx, nil, provider)
	if err != nil {
		return nil, err
	}
	gw, err := s.factory.ForConfig(cfg)
	if err != nil {
		return nil, err
	}

	details, err := gw.GetTransaction(ctx, providerTxnID)
	if err != nil {
		// ProviderUnavailable mutates nothing; the caller retries or the
		// provider redelivers
		return nil, err
	}

	reservationID := hintedReservationID
	if reservationID == "" {
		id, ok := reference.Parse(details.Reference)
		if !ok {
			return nil, domain.NewDomainError(domain.ErrorCodeReservationNotFound,
				"reference does not resolve to a reservation").
				WithDetail("reference", details.Reference)
		}
		reservationID = id
	}

	outcome := &Outcome{ReservationID: reservationID, Status: details.Status}

	switch details.Status {
	case models.StatusApproved:
		activated, err := s.settleApproval(ctx, reservationID, details)
		if err != nil {
			return nil, err
		}
		outcome.Activated = activated
	case models.StatusPending:
		s.logger.Info("Transaction still pending",
			ports.String("provider", string(provider)),
			ports.String("provider_txn_id", providerTxnID),
			ports.String("reservation_id", reservationID),
		)
	default:
		// Declined, voided, errored. The reservation stays reserved so the
		// customer can retry payment until the TTL runs out; only the
		// ledger remembers the failed attempt.
		if err := s.recordAttempt(ctx, details); err != nil {
			return nil, err
		}
		s.logger.Info("Transaction not approved",
			ports.String("provider", string(provider)),
			ports.String("provider_txn_id", providerTxnID),
			ports.String("status", string(details.Status)),
			ports.String("message", details.StatusMessage),
		)
	}

	observability.RecordReconciliation(string(provider), string(details.Status), outcome.Activated)
	return outcome, nil
}

// settleApproval performs the one-winner activation. Every side effect
// rides in the same database transaction as the compare-and-set, so either
// the reservation activates together with its ledger row, subscription and
// activity entry, or none of it happens. A lost race skips the side
// effects entirely and reports success.
func (s *Service) settleApproval(ctx context.Context, reservationID string, details *models.TransactionDetails) (bool, error) {
	var activated bool

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		reservation, err := s.reservations.GetByID(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		// A payment approved after the hold lapsed must not grant a seat
		if reservation.Status == models.ReservationExpired || reservation.IsExpired(s.now()) {
			return domain.NewDomainError(domain.ErrorCodeReservationExpired,
				"payment approved after reservation expired").
				WithDetail("provider_txn_id", details.ProviderTransactionID)
		}

		won, err := s.reservations.Activate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !won {
			// The pre-check read may be stale by now: another delivery can
			// win the compare-and-set between our read and our attempt.
			// Re-read inside the transaction before deciding anything.
			fresh, err := s.reservations.GetByID(ctx, tx, reservationID)
			if err != nil {
				return err
			}
			if fresh.Status == models.ReservationExpired {
				return domain.NewDomainError(domain.ErrorCodeReservationExpired,
					"payment approved after reservation expired").
					WithDetail("provider_txn_id", details.ProviderTransactionID)
			}
			if fresh.Status != models.ReservationActive {
				// Cancelled before the approval landed. The seat is gone,
				// but the ledger still remembers the payment so support can
				// refund it.
				s.logger.Warn("Approved payment against a settled-out reservation",
					ports.String("reservation_id", reservationID),
					ports.String("status", string(fresh.Status)),
					ports.String("provider_txn_id", details.ProviderTransactionID),
				)
				return s.transactions.Upsert(ctx, tx, recordFromDetails(details))
			}
			// Duplicate delivery of an already settled payment
			return nil
		}
		activated = true

		if err := s.transactions.Upsert(ctx, tx, recordFromDetails(details)); err != nil {
			return err
		}

		plan, err := s.plans.GetByID(ctx, tx, reservation.PlanID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.subscriptions.Upsert(ctx, tx, &models.Subscription{
			ID:             uuid.New().String(),
			OrganizationID: reservation.OrganizationID,
			PlanID:         reservation.PlanID,
			Price:          reservation.LockedPrice,
			Currency:       reservation.Currency,
			PeriodStart:    now,
			PeriodEnd:      now.AddDate(0, 0, plan.PeriodDays),
			Status:         models.SubStatusActive,
		}); err != nil {
			return err
		}

		return s.activity.Insert(ctx, tx, &models.ActivityEntry{
			ID:             uuid.New().String(),
			OrganizationID: reservation.OrganizationID,
			Kind:           models.ActivitySubscriptionActivated,
			Message:        "subscription activated",
			Metadata: map[string]string{
				"reservation_id":  reservationID,
				"plan_id":         reservation.PlanID,
				"provider_txn_id": details.ProviderTransactionID,
				"amount":          fmt.Sprintf("%d", details.AmountMinorUnits),
				"currency":        details.Currency,
			},
		})
	})
	if err != nil {
		return false, err
	}

	if activated {
		s.logger.Info("Reservation activated",
			ports.String("reservation_id", reservationID),
			ports.String("provider_txn_id", details.ProviderTransactionID),
			ports.Int64("amount_minor_units", details.AmountMinorUnits),
		)
		observability.RecordActivation(string(details.Provider), details.AmountMinorUnits, details.Currency)
	}
	return activated, nil
}

// recordAttempt upserts the ledger row for a non-approved transaction
func (s *Service) recordAttempt(ctx context.Context, details *models.TransactionDetails) error {
	return s.transactions.Upsert(ctx, nil, recordFromDetails(details))
}

func recordFromDetails(details *models.TransactionDetails) *models.TransactionRecord {
	return &models.TransactionRecord{
		ID:                    uuid.New().String(),
		ProviderTransactionID: details.ProviderTransactionID,
		Reference:             details.Reference,
		AmountMinorUnits:      details.AmountMinorUnits,
		Currency:              details.Currency,
		Status:                details.Status,
		PaymentMethod:         details.PaymentMethod,
		RawProviderPayload:    details.RawPayload,
		CompletedAt:           details.FinalizedAt,
	}
}
