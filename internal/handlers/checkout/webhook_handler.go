package checkout

import (
	"io"
	"net/http"
	"time"

	"github.com/seatflow/checkout-service/internal/adapters/epayco"
	"github.com/seatflow/checkout-service/internal/adapters/wompi"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/pkg/observability"
)

type reconcileResponse struct {
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id,omitempty"`
	Activated     bool   `json:"activated"`
}

// HandleWebhook handles POST /api/v1/webhooks/{provider}, the
// server-to-server notification path. The body is only trusted for two
// things: the signature proving the provider sent it and the transaction
// id to reconcile. Money state always comes from re-reading the provider.
//
// Responses steer redelivery: 401 for a bad signature, 502 while the
// provider API is unreachable (so the event is redelivered), 200 for
// everything settled or terminally unsettleable.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	provider := models.Provider(r.PathValue("provider"))
	if !provider.IsValid() {
		h.respondError(w, domain.ErrUnsupportedProvider)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "read webhook body", err))
		return
	}

	gw, err := h.gateways.Resolve(r.Context(), provider)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if !gw.ValidateWebhookSignature(payload, r.Header.Get("X-Event-Checksum")) {
		h.logger.Warn("Webhook signature rejected",
			ports.String("provider", string(provider)),
			ports.String("remote_addr", r.RemoteAddr),
		)
		observability.RecordWebhookDelivery(string(provider), "rejected_signature", time.Since(start).Seconds())
		h.respondError(w, domain.ErrSignatureMismatch)
		return
	}

	txnID, ok := extractTransactionID(provider, payload)
	if !ok {
		observability.RecordWebhookDelivery(string(provider), "failed", time.Since(start).Seconds())
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"event carries no transaction id"))
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), provider, txnID, "")
	if err != nil {
		if domain.IsRetryable(err) {
			observability.RecordWebhookDelivery(string(provider), "provider_unavailable", time.Since(start).Seconds())
			h.respondError(w, err)
			return
		}
		// Terminal: redelivering the same event can never succeed, so
		// acknowledge it and keep the failure in the logs
		h.logger.Warn("Webhook reconciliation terminally failed",
			ports.String("provider", string(provider)),
			ports.String("provider_txn_id", txnID),
			ports.Err(err),
		)
		observability.RecordWebhookDelivery(string(provider), "failed", time.Since(start).Seconds())
		h.respondJSON(w, http.StatusOK, reconcileResponse{Status: "ignored"})
		return
	}

	observability.RecordWebhookDelivery(string(provider), "accepted", time.Since(start).Seconds())
	h.respondJSON(w, http.StatusOK, reconcileResponse{
		Status:        string(outcome.Status),
		ReservationID: outcome.ReservationID,
		Activated:     outcome.Activated,
	})
}

// HandleCallback handles GET /api/v1/checkout/callback, the browser
// redirect return. The redirect's query string is attacker-visible input,
// so it only names which transaction to reconcile; approval comes from the
// provider API. The pending page polls this endpoint until the status goes
// final.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	provider := models.Provider(query.Get("provider"))
	txnID := query.Get("id")
	if refPayco := query.Get("ref_payco"); refPayco != "" {
		txnID = refPayco
		if provider == "" {
			provider = models.ProviderEpayco
		}
	}
	if provider == "" {
		provider = models.ProviderWompi
	}
	if txnID == "" {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"callback carries no transaction id"))
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), provider, txnID, query.Get("reservation_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, reconcileResponse{
		Status:        string(outcome.Status),
		ReservationID: outcome.ReservationID,
		Activated:     outcome.Activated,
	})
}

// extractTransactionID pulls the provider transaction id from an event
// payload, per provider wire format
func extractTransactionID(provider models.Provider, payload []byte) (string, bool) {
	switch provider {
	case models.ProviderWompi:
		return wompi.ExtractEventTransactionID(payload)
	case models.ProviderEpayco:
		return epayco.ExtractConfirmationTransactionID(payload)
	default:
		return "", false
	}
}
