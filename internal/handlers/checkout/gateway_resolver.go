package checkout

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/gateway"
)

// GatewayResolver resolves the active gateway adapter for a provider.
// Shared by webhook validation and payment method listing; services that
// also need a gateway resolve their own through the same factory.
type GatewayResolver struct {
	configs ports.GatewayConfigRepository
	factory *gateway.Factory
}

// NewGatewayResolver creates a gateway resolver
func NewGatewayResolver(configs ports.GatewayConfigRepository, factory *gateway.Factory) *GatewayResolver {
	return &GatewayResolver{configs: configs, factory: factory}
}

// Resolve returns the gateway for a provider's active configuration
func (g *GatewayResolver) Resolve(ctx context.Context, provider models.Provider) (ports.PaymentGateway, error) {
	cfg, err := g.configs.GetActiveByProvider(ctx, nil, provider)
	if err != nil {
		return nil, err
	}
	return g.factory.ForConfig(cfg)
}

// ListPaymentMethods lists the provider's current banks and methods
func (g *GatewayResolver) ListPaymentMethods(ctx context.Context, provider models.Provider) ([]models.PaymentMethodInfo, error) {
	gw, err := g.Resolve(ctx, provider)
	if err != nil {
		return nil, err
	}
	return gw.ListPaymentMethods(ctx)
}
