package checkout

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seatflow/checkout-service/internal/adapters/secrets"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/gateway"
	"github.com/seatflow/checkout-service/internal/reference"
	"github.com/seatflow/checkout-service/internal/signing"
)

// MockReservationRepository mocks the reservation repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx ports.DBTX, reservation *models.Reservation) error {
	args := m.Called(ctx, tx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*models.Reservation, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) SetPaymentReference(ctx context.Context, tx ports.DBTX, id, ref string) error {
	args := m.Called(ctx, tx, id, ref)
	return args.Error(0)
}

func (m *MockReservationRepository) Activate(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) Expire(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) Cancel(ctx context.Context, tx ports.DBTX, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) ExtendExpiry(ctx context.Context, tx ports.DBTX, id string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) ExpireOverdue(ctx context.Context, db ports.DBTX, now time.Time) (int64, error) {
	args := m.Called(ctx, db, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) NextSeatNumber(ctx context.Context, tx ports.DBTX, planID string) (int64, error) {
	args := m.Called(ctx, tx, planID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGatewayConfigRepository mocks the gateway config repository
type MockGatewayConfigRepository struct {
	mock.Mock
}

func (m *MockGatewayConfigRepository) GetActiveByProvider(ctx context.Context, db ports.DBTX, provider models.Provider) (*models.GatewayConfig, error) {
	args := m.Called(ctx, db, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayConfig), args.Error(1)
}

func (m *MockGatewayConfigRepository) ListActive(ctx context.Context, db ports.DBTX) ([]*models.GatewayConfig, error) {
	args := m.Called(ctx, db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GatewayConfig), args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Debug(msg string, fields ...ports.Field) {}

// stubHTTPClient returns one canned response for every request
type stubHTTPClient struct {
	status int
	body   string
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Header:     make(http.Header),
	}, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	reservations *MockReservationRepository
	configs      *MockGatewayConfigRepository
	cipher       *secrets.AESCipher
	svc          *Service
}

// newTestEnv wires the service against the real gateway factory and cipher
// so session building exercises the actual signing path.
func newTestEnv(t *testing.T, client ports.HTTPClient) *testEnv {
	t.Helper()
	cipher, err := secrets.NewAESCipher("checkout-test-master-key")
	require.NoError(t, err)

	env := &testEnv{
		reservations: new(MockReservationRepository),
		configs:      new(MockGatewayConfigRepository),
		cipher:       cipher,
	}
	factory := gateway.NewFactory(cipher, client, nopLogger{})
	env.svc = NewService(env.reservations, env.configs, factory, nopLogger{}, "https://app.example.com/checkout/return")
	env.svc.now = func() time.Time { return testNow }
	return env
}

func (e *testEnv) gatewayConfig(t *testing.T, provider models.Provider) *models.GatewayConfig {
	t.Helper()
	privateKey, err := e.cipher.Encrypt("prv_test_456")
	require.NoError(t, err)
	integritySecret, err := e.cipher.Encrypt("test_integrity")
	require.NoError(t, err)
	confirmationKey, err := e.cipher.Encrypt("test_events")
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

func liveReservation() *models.Reservation {
	expiresAt := testNow.Add(10 * time.Minute)
	return &models.Reservation{
		ID:             "8d7f35c2-57b4-4c07-9c43-1f9b79d9a001",
		SeatNumber:     3,
		OrganizationID: "org-1",
		PlanID:         "plan-1",
		LockedPrice:    decimal.RequireFromString("2500.50"),
		Currency:       "COP",
		ExpiresAt:      &expiresAt,
		Status:         models.ReservationReserved,
		CreatedAt:      testNow.Add(-5 * time.Minute),
	}
}

func TestBuildSession_WompiHostedCheckout(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})
	reservation := liveReservation()

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)
	env.configs.On("GetActiveByProvider", mock.Anything, mock.Anything, models.ProviderWompi).
		Return(env.gatewayConfig(t, models.ProviderWompi), nil)
	env.reservations.On("SetPaymentReference", mock.Anything, mock.Anything, reservation.ID, mock.Anything).Return(nil)

	session, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderWompi,
		Customer:      models.CustomerContact{Email: "buyer@example.com", FullName: "Ana Gomez"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.ProviderWompi, session.Provider)
	assert.Equal(t, int64(250050), session.AmountMinorUnits)
	assert.Equal(t, "COP", session.Currency)
	assert.Equal(t, "pub_test_123", session.PublicKey)
	assert.NotEmpty(t, session.RedirectURL)
	assert.Equal(t, reservation.ExpiresAt, session.ExpiresAt)

	// The session carries the integrity signature over the locked amount
	assert.Equal(t,
		signing.IntegritySignature(session.Reference, 250050, "COP", "test_integrity"),
		session.Signature)

	// The reference embeds the reservation id so the reconciler can find it
	id, ok := reference.Parse(session.Reference)
	require.True(t, ok)
	assert.Equal(t, reservation.ID, id)
	env.reservations.AssertCalled(t, "SetPaymentReference",
		mock.Anything, mock.Anything, reservation.ID, session.Reference)
}

func TestBuildSession_RequestReturnURLWins(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})
	reservation := liveReservation()

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)
	env.configs.On("GetActiveByProvider", mock.Anything, mock.Anything, models.ProviderWompi).
		Return(env.gatewayConfig(t, models.ProviderWompi), nil)
	env.reservations.On("SetPaymentReference", mock.Anything, mock.Anything, reservation.ID, mock.Anything).Return(nil)

	session, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderWompi,
		ReturnURL:     "https://tenant.example.com/done",
	})

	require.NoError(t, err)
	assert.Contains(t, session.RedirectURL, "tenant.example.com")
}

func TestBuildSession_UnsupportedProvider(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})

	_, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: "res-1",
		Provider:      models.Provider("stripe"),
	})

	assert.Equal(t, domain.ErrorCodeProviderUnsupported, domain.GetErrorCode(err))
	env.reservations.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildSession_ExpiredReservation(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})
	reservation := liveReservation()
	lapsed := testNow.Add(-time.Minute)
	reservation.ExpiresAt = &lapsed

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)

	_, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderWompi,
	})

	assert.Equal(t, domain.ErrorCodeReservationExpired, domain.GetErrorCode(err))
}

func TestBuildSession_TerminalReservation(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})
	reservation := liveReservation()
	reservation.Status = models.ReservationCancelled
	reservation.ExpiresAt = nil

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)

	_, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderWompi,
	})

	assert.Equal(t, domain.ErrorCodeReservationInvalidState, domain.GetErrorCode(err))
}

func TestBuildSession_ConfigMissing(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{})
	reservation := liveReservation()

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)
	env.configs.On("GetActiveByProvider", mock.Anything, mock.Anything, models.ProviderWompi).
		Return(nil, domain.ErrConfigurationMissing)

	_, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderWompi,
	})

	assert.Equal(t, domain.ErrorCodeConfigMissing, domain.GetErrorCode(err))
	env.reservations.AssertNotCalled(t, "SetPaymentReference",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildSession_ProviderRejection(t *testing.T) {
	env := newTestEnv(t, &stubHTTPClient{status: http.StatusOK, body: `{
		"success": false,
		"textResponse": "invalid bank"
	}`})
	reservation := liveReservation()

	env.reservations.On("GetByID", mock.Anything, mock.Anything, reservation.ID).Return(reservation, nil)
	env.configs.On("GetActiveByProvider", mock.Anything, mock.Anything, models.ProviderEpayco).
		Return(env.gatewayConfig(t, models.ProviderEpayco), nil)

	_, err := env.svc.BuildSession(context.Background(), &Request{
		ReservationID: reservation.ID,
		Provider:      models.ProviderEpayco,
		PaymentMethod: "PSE",
		BankCode:      "1007",
		Customer:      models.CustomerContact{Email: "buyer@example.com"},
	})

	assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
	env.reservations.AssertNotCalled(t, "SetPaymentReference",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
