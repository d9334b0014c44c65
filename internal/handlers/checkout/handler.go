// Package checkout exposes the HTTP surface of the checkout pipeline:
// reservation management, session creation, and the two provider
// notification paths (server-to-server webhook and browser redirect).
package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/services/checkout"
	"github.com/seatflow/checkout-service/internal/services/reconciler"
	"github.com/seatflow/checkout-service/internal/services/reservation"
	"github.com/seatflow/checkout-service/pkg/observability"
)

// maxBodyBytes caps inbound request bodies; provider events are small
const maxBodyBytes = 1 << 20

// Handler serves the checkout HTTP API
type Handler struct {
	reservations *reservation.Service
	sessions     *checkout.Service
	reconciler   *reconciler.Service
	gateways     *GatewayResolver
	logger       ports.Logger
}

// NewHandler creates the checkout HTTP handler
func NewHandler(
	reservations *reservation.Service,
	sessions *checkout.Service,
	rec *reconciler.Service,
	gateways *GatewayResolver,
	logger ports.Logger,
) *Handler {
	return &Handler{
		reservations: reservations,
		sessions:     sessions,
		reconciler:   rec,
		gateways:     gateways,
		logger:       logger,
	}
}

// Register mounts all routes on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, observability.HTTPMetricsMiddleware(pattern, fn))
	}
	handle("POST /api/v1/reservations", h.CreateReservation)
	handle("GET /api/v1/reservations/{id}", h.GetReservation)
	handle("POST /api/v1/reservations/{id}/extend", h.ExtendReservation)
	handle("DELETE /api/v1/reservations/{id}", h.CancelReservation)
	handle("POST /api/v1/checkout/sessions", h.CreateSession)
	handle("GET /api/v1/checkout/callback", h.HandleCallback)
	handle("POST /api/v1/webhooks/{provider}", h.HandleWebhook)
	handle("GET /api/v1/payment-methods/{provider}", h.ListPaymentMethods)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.logger.Error("Failed to encode response", ports.Err(err))
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps the domain error taxonomy onto HTTP statuses.
// ProviderUnavailable maps to 502 so webhook senders redeliver.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)
	status := http.StatusInternalServerError

	switch {
	case domain.IsNotFoundError(err):
		status = http.StatusNotFound
	case code == domain.ErrorCodeReservationExpired:
		status = http.StatusGone
	case code == domain.ErrorCodeReservationInvalidState ||
		code == domain.ErrorCodeSeatsExhausted:
		status = http.StatusConflict
	case code == domain.ErrorCodeValidationFailed ||
		code == domain.ErrorCodeProviderUnsupported:
		status = http.StatusBadRequest
	case code == domain.ErrorCodeSignatureMismatch:
		status = http.StatusUnauthorized
	case code == domain.ErrorCodeProviderUnavailable:
		status = http.StatusBadGateway
	case domain.IsConfigurationError(err):
		status = http.StatusServiceUnavailable
	}

	message := "internal server error"
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && status != http.StatusInternalServerError {
		message = domainErr.Message
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", ports.Err(err))
	}
	h.respondJSON(w, status, errorResponse{Code: string(code), Message: message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request body", err)
	}
	return nil
}
