// Package checkout builds provider checkout sessions for live reservations.
// A session carries only public material: the signature proves the amount
// and reference without ever exposing a private key to the browser.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/gateway"
	"github.com/seatflow/checkout-service/internal/reference"
	"github.com/seatflow/checkout-service/internal/signing"
	"github.com/seatflow/checkout-service/pkg/observability"
)

// Session is what the client needs to hand the shopper to the provider
type Session struct {
	Provider              models.Provider
	Reference             string
	AmountMinorUnits      int64
	Currency              string
	PublicKey             string
	Signature             string
	RedirectURL           string
	ProviderTransactionID string
	ExpiresAt             *time.Time
}

// Request describes the session to build
type Request struct {
	ReservationID string
	Provider      models.Provider
	Customer      models.CustomerContact
	PaymentMethod string // e.g. "CARD", "PSE"
	BankCode      string
	ReturnURL     string
}

// Service builds checkout sessions
type Service struct {
	reservations ports.ReservationRepository
	configs      ports.GatewayConfigRepository
	factory      *gateway.Factory
	logger       ports.Logger
	returnURL    string
	now          func() time.Time
}

// NewService creates a new checkout service. defaultReturnURL is used when
// the request does not carry its own.
func NewService(
	reservations ports.ReservationRepository,
	configs ports.GatewayConfigRepository,
	factory *gateway.Factory,
	logger ports.Logger,
	defaultReturnURL string,
) *Service {
	return &Service{
		reservations: reservations,
		configs:      configs,
		factory:      factory,
		logger:       logger,
		returnURL:    defaultReturnURL,
		now:          time.Now,
	}
}

// BuildSession turns a live reservation into a provider checkout session.
// The amount is the reservation's locked price in minor units; the current
// plan list price plays no part. The generated reference is persisted onto
// the reservation before the session is returned, so a webhook arriving
// seconds later can already resolve it.
func (s *Service) BuildSession(ctx context.Context, req *Request) (*Session, error) {
	if !req.Provider.IsValid() {
		return nil, domain.ErrUnsupportedProvider
	}

	reservation, err := s.reservations.GetByID(ctx, nil, req.ReservationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if reservation.IsExpired(now) || reservation.Status == models.ReservationExpired {
		return nil, domain.ErrReservationExpired
	}
	if reservation.Status != models.ReservationReserved {
		return nil, domain.ErrReservationInvalidState
	}

	cfg, err := s.configs.GetActiveByProvider(ctx, nil, req.Provider)
	if err != nil {
		return nil, err
	}
	creds, err := s.factory.DecryptedSecrets(cfg)
	if err != nil {
		return nil, err
	}
	gw, err := s.factory.ForConfig(cfg, gateway.WithDecryptedSecrets(creds))
	if err != nil {
		return nil, err
	}

	ref := reference.Build(reservation.ID, now)
	sig := signing.IntegritySignature(ref, reservation.AmountMinorUnits(), reservation.Currency, creds.IntegritySecret)
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.returnURL
	}

	result, err := gw.CreateTransaction(ctx, &ports.CreateTransactionRequest{
		AmountMinorUnits: reservation.AmountMinorUnits(),
		Currency:         reservation.Currency,
		Reference:        ref,
		Customer:         req.Customer,
		RedirectURL:      returnURL,
		PaymentMethod:    req.PaymentMethod,
		BankCode:         req.BankCode,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"provider rejected checkout session").
			WithDetail("provider_message", result.Message)
	}

	if err := s.reservations.SetPaymentReference(ctx, nil, reservation.ID, ref); err != nil {
		return nil, fmt.Errorf("persist payment reference: %w", err)
	}

	s.logger.Info("Checkout session built",
		ports.String("reservation_id", reservation.ID),
		ports.String("provider", string(req.Provider)),
		ports.String("reference", ref),
		ports.Int64("amount_minor_units", reservation.AmountMinorUnits()),
	)
	observability.RecordCheckoutSession(string(req.Provider))

	return &Session{
		Provider:              req.Provider,
		Reference:             ref,
		AmountMinorUnits:      reservation.AmountMinorUnits(),
		Currency:              reservation.Currency,
		PublicKey:             cfg.PublicKey,
		Signature:             sig,
		RedirectURL:           result.RedirectURL,
		ProviderTransactionID: result.ProviderTransactionID,
		ExpiresAt:             reservation.ExpiresAt,
	}, nil
}
