package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// CreateTransactionRequest carries everything a provider needs to start a
// transaction. Method-specific fields are optional depending on provider
// and payment method.
type CreateTransactionRequest struct {
	AmountMinorUnits int64
	Currency         string
	Reference        string
	Customer         models.CustomerContact
	RedirectURL      string
	PaymentMethod    string // e.g. "CARD", "PSE"
	CardToken        string
	BankCode         string
	Installments     int
}

// CreateTransactionResult is the uniform result of transaction creation.
// Providers with a hosted-widget pattern return a RedirectURL without
// touching the network; API-first providers return the provider's
// transaction id.
type CreateTransactionResult struct {
	Success               bool
	ProviderTransactionID string
	Status                models.TransactionStatus
	RedirectURL           string
	Message               string
}

// PaymentGateway is the uniform contract over all payment providers.
// Network and parse failures are normalized to the domain error taxonomy
// before crossing this boundary; callers never see provider-specific
// error shapes.
type PaymentGateway interface {
	// CreateTransaction starts a provider transaction or builds a hosted
	// checkout redirect, depending on the provider's integration pattern
	CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResult, error)

	// GetTransaction fetches ground-truth details by provider transaction id
	GetTransaction(ctx context.Context, providerTxnID string) (*models.TransactionDetails, error)

	// GetTransactionByReference fetches details by our checkout reference
	GetTransactionByReference(ctx context.Context, reference string) (*models.TransactionDetails, error)

	// ListPaymentMethods returns the banks/methods the provider offers
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethodInfo, error)

	// TestConnection is a best-effort reachability and credential check;
	// failures are non-fatal to the rest of the system
	TestConnection(ctx context.Context) bool

	// ValidateWebhookSignature verifies an inbound event against the
	// provider's shared secret. Pure function, constant-time comparison.
	ValidateWebhookSignature(payload []byte, signature string) bool

	// Provider identifies which adapter this is
	Provider() models.Provider
}
