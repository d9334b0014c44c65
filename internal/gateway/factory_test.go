package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatflow/checkout-service/internal/adapters/epayco"
	"github.com/seatflow/checkout-service/internal/adapters/secrets"
	"github.com/seatflow/checkout-service/internal/adapters/wompi"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Debug(msg string, fields ...ports.Field) {}

type nopHTTPClient struct{}

func (nopHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return nil, http.ErrServerClosed
}

func testCipher(t *testing.T) *secrets.AESCipher {
	t.Helper()
	cipher, err := secrets.NewAESCipher("factory-test-master-key")
	require.NoError(t, err)
	return cipher
}

func encryptedConfig(t *testing.T, cipher *secrets.AESCipher, provider models.Provider) *models.GatewayConfig {
	t.Helper()

	privateKey, err := cipher.Encrypt("prv_test_456")
	require.NoError(t, err)
	integritySecret, err := cipher.Encrypt("test_integrity")
	require.NoError(t, err)
	confirmationKey, err := cipher.Encrypt("test_events")
	require.NoError(t, err)

	return &models.GatewayConfig{
		ID:                       "cfg-1",
		Provider:                 provider,
		PublicKey:                "pub_test_123",
		EncryptedPrivateKey:      privateKey,
		EncryptedIntegritySecret: integritySecret,
		EncryptedConfirmationKey: confirmationKey,
		TestMode:                 true,
		Active:                   true,
	}
}

func TestForConfig_NilConfig(t *testing.T) {
	factory := NewFactory(testCipher(t), nopHTTPClient{}, nopLogger{})

	_, err := factory.ForConfig(nil)

	assert.Equal(t, domain.ErrorCodeConfigMissing, domain.GetErrorCode(err))
}

func TestForConfig_DecryptsAndBuildsWompi(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	gw, err := factory.ForConfig(encryptedConfig(t, cipher, models.ProviderWompi))

	require.NoError(t, err)
	assert.IsType(t, &wompi.Adapter{}, gw)
}

func TestForConfig_DecryptsAndBuildsEpayco(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	gw, err := factory.ForConfig(encryptedConfig(t, cipher, models.ProviderEpayco))

	require.NoError(t, err)
	assert.IsType(t, &epayco.Adapter{}, gw)
}

func TestForConfig_UnsupportedProvider(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	cfg := encryptedConfig(t, cipher, models.Provider("stripe"))
	_, err := factory.ForConfig(cfg)

	assert.Equal(t, domain.ErrorCodeProviderUnsupported, domain.GetErrorCode(err))
}

func TestForConfig_MissingSecretsOnActiveConfig(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	cfg := encryptedConfig(t, cipher, models.ProviderWompi)
	cfg.EncryptedIntegritySecret = ""

	_, err := factory.ForConfig(cfg)

	assert.Equal(t, domain.ErrorCodeConfigInvalid, domain.GetErrorCode(err))
}

func TestForConfig_UndecryptableSecret(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	cfg := encryptedConfig(t, cipher, models.ProviderWompi)
	cfg.EncryptedPrivateKey = "bm90LWEtcmVhbC1jaXBoZXJ0ZXh0"

	_, err := factory.ForConfig(cfg)

	assert.Equal(t, domain.ErrorCodeConfigInvalid, domain.GetErrorCode(err))
}

func TestForConfig_WithDecryptedSecretsSkipsCipher(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	// Ciphertexts from a rotated-away key; the snapshot must win.
	otherCipher, err := secrets.NewAESCipher("rotated-master-key")
	require.NoError(t, err)
	cfg := encryptedConfig(t, otherCipher, models.ProviderWompi)

	gw, err := factory.ForConfig(cfg, WithDecryptedSecrets(models.GatewayCredentials{
		PublicKey:       "pub_test_123",
		PrivateKey:      "prv_test_456",
		IntegritySecret: "test_integrity",
	}))

	require.NoError(t, err)
	assert.IsType(t, &wompi.Adapter{}, gw)
}

func TestDecryptedSecrets_RoundTrip(t *testing.T) {
	cipher := testCipher(t)
	factory := NewFactory(cipher, nopHTTPClient{}, nopLogger{})

	creds, err := factory.DecryptedSecrets(encryptedConfig(t, cipher, models.ProviderWompi))

	require.NoError(t, err)
	assert.Equal(t, "pub_test_123", creds.PublicKey)
	assert.Equal(t, "prv_test_456", creds.PrivateKey)
	assert.Equal(t, "test_integrity", creds.IntegritySecret)
	assert.Equal(t, "test_events", creds.ConfirmationKey)
}
