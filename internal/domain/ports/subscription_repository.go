package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// SubscriptionRepository persists the derived subscription snapshot,
// one live row per organization
type SubscriptionRepository interface {
	// Upsert creates or refreshes the organization's subscription. Keyed by
	// organization id so a duplicate reconciliation can never produce a
	// second row.
	Upsert(ctx context.Context, tx DBTX, subscription *models.Subscription) error

	// GetByOrganization loads the organization's subscription
	GetByOrganization(ctx context.Context, db DBTX, organizationID string) (*models.Subscription, error)
}
