package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// GatewayConfigRepository reads stored gateway configurations.
// One config per provider per deployment; secrets stay encrypted until the
// factory decrypts them.
type GatewayConfigRepository interface {
	// GetActiveByProvider loads the active config for one provider
	GetActiveByProvider(ctx context.Context, db DBTX, provider models.Provider) (*models.GatewayConfig, error)

	// ListActive returns every active config
	ListActive(ctx context.Context, db DBTX) ([]*models.GatewayConfig, error)
}
