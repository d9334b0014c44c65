package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

// SubscriptionRepository implements ports.SubscriptionRepository with pgx
type SubscriptionRepository struct {
	db ports.DBPort
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db ports.DBPort) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert creates or refreshes the organization's subscription. The conflict
// target is organization id, so a duplicate reconciliation refreshes the one
// live row instead of inserting a second.
func (r *SubscriptionRepository) Upsert(ctx context.Context, tx ports.DBTX, sub *models.Subscription) error {
	id, err := uuid.Parse(sub.ID)
	if err != nil {
		return fmt.Errorf("invalid subscription ID: %w", err)
	}
	orgID, err := uuid.Parse(sub.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization ID: %w", err)
	}
	planID, err := uuid.Parse(sub.PlanID)
	if err != nil {
		return fmt.Errorf("invalid plan ID: %w", err)
	}
	price, err := decimalToPgNumeric(sub.Price)
	if err != nil {
		return fmt.Errorf("invalid subscription price: %w", err)
	}

	q := executor(r.db.GetDB(), tx)
	_, err = q.Exec(ctx, `
		INSERT INTO subscriptions (
			id, organization_id, plan_id, price, currency,
			period_start, period_end, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (organization_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			status = EXCLUDED.status,
			updated_at = now()`,
		id,
		orgID,
		planID,
		price,
		sub.Currency,
		sub.PeriodStart,
		sub.PeriodEnd,
		string(sub.Status),
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// GetByOrganization loads the organization's subscription. Returns nil
// without error when the organization has never activated one.
func (r *SubscriptionRepository) GetByOrganization(ctx context.Context, db ports.DBTX, organizationID string) (*models.Subscription, error) {
	orgID, err := uuid.Parse(organizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization ID: %w", err)
	}

	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT id, organization_id, plan_id, price, currency,
		       period_start, period_end, status, created_at, updated_at
		FROM subscriptions
		WHERE organization_id = $1`,
		orgID,
	)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var (
		id     uuid.UUID
		orgID  uuid.UUID
		planID uuid.UUID
		price  pgtype.Numeric
		status string
		sub    models.Subscription
	)
	err := row.Scan(
		&id, &orgID, &planID, &price, &sub.Currency,
		&sub.PeriodStart, &sub.PeriodEnd, &status,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	dec, err := pgNumericToDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("decode subscription price: %w", err)
	}

	sub.ID = id.String()
	sub.OrganizationID = orgID.String()
	sub.PlanID = planID.String()
	sub.Price = dec
	sub.Status = models.SubscriptionStatus(status)
	return &sub, nil
}
