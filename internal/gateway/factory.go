// Package gateway resolves stored gateway configurations into ready-to-use
// provider adapters.
package gateway

import (
	"github.com/seatflow/checkout-service/internal/adapters/epayco"
	"github.com/seatflow/checkout-service/internal/adapters/wompi"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

// Factory constructs PaymentGateway instances from GatewayConfig rows.
// It is a pure constructor: no process-wide state, no storage access.
type Factory struct {
	cipher     ports.CredentialCipher
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewFactory creates a gateway factory
func NewFactory(cipher ports.CredentialCipher, httpClient ports.HTTPClient, logger ports.Logger) *Factory {
	return &Factory{
		cipher:     cipher,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Option customizes gateway construction
type Option func(*buildOptions)

type buildOptions struct {
	creds *models.GatewayCredentials
}

// WithDecryptedSecrets supplies a credentials snapshot taken earlier
// (e.g. at session-build time) so hot paths skip redundant decryption and
// in-flight reservations survive secret rotation
func WithDecryptedSecrets(creds models.GatewayCredentials) Option {
	return func(o *buildOptions) {
		o.creds = &creds
	}
}

// ForConfig resolves the adapter for the config's provider, decrypting any
// secret not already supplied. Unknown providers are a configuration bug
// and fail with UnsupportedProvider.
func (f *Factory) ForConfig(cfg *models.GatewayConfig, opts ...Option) (ports.PaymentGateway, error) {
	if cfg == nil {
		return nil, domain.ErrConfigurationMissing
	}

	var build buildOptions
	for _, opt := range opts {
		opt(&build)
	}

	creds := build.creds
	if creds == nil {
		decrypted, err := f.decrypt(cfg)
		if err != nil {
			return nil, err
		}
		creds = decrypted
	}

	if cfg.Active && (creds.PublicKey == "" || creds.PrivateKey == "" || creds.IntegritySecret == "") {
		return nil, domain.ErrConfigurationInvalid.WithDetail("provider", string(cfg.Provider))
	}

	switch cfg.Provider {
	case models.ProviderWompi:
		return wompi.NewAdapter(wompi.DefaultConfig(cfg.TestMode), *creds, f.httpClient, f.logger), nil
	case models.ProviderEpayco:
		return epayco.NewAdapter(epayco.DefaultConfig(), *creds, cfg.TestMode, f.httpClient, f.logger), nil
	default:
		return nil, domain.ErrUnsupportedProvider.WithDetail("provider", string(cfg.Provider))
	}
}

// DecryptedSecrets decrypts the config's secrets for a caller that wants
// to snapshot them before building sessions
func (f *Factory) DecryptedSecrets(cfg *models.GatewayConfig) (models.GatewayCredentials, error) {
	creds, err := f.decrypt(cfg)
	if err != nil {
		return models.GatewayCredentials{}, err
	}
	return *creds, nil
}

func (f *Factory) decrypt(cfg *models.GatewayConfig) (*models.GatewayCredentials, error) {
	creds := &models.GatewayCredentials{PublicKey: cfg.PublicKey}

	var err error
	if cfg.EncryptedPrivateKey != "" {
		if creds.PrivateKey, err = f.cipher.Decrypt(cfg.EncryptedPrivateKey); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigInvalid, "decrypt private key", err)
		}
	}
	if cfg.EncryptedIntegritySecret != "" {
		if creds.IntegritySecret, err = f.cipher.Decrypt(cfg.EncryptedIntegritySecret); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigInvalid, "decrypt integrity secret", err)
		}
	}
	if cfg.EncryptedConfirmationKey != "" {
		if creds.ConfirmationKey, err = f.cipher.Decrypt(cfg.EncryptedConfirmationKey); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigInvalid, "decrypt confirmation key", err)
		}
	}
	return creds, nil
}
