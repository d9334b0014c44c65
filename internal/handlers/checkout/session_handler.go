package checkout

import (
	"net/http"
	"time"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/services/checkout"
)

type createSessionRequest struct {
	ReservationID string `json:"reservation_id"`
	Provider      string `json:"provider"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	PaymentMethod string `json:"payment_method,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	ReturnURL     string `json:"return_url,omitempty"`
}

type sessionResponse struct {
	Provider              string `json:"provider"`
	Reference             string `json:"reference"`
	AmountMinorUnits      int64  `json:"amount_minor_units"`
	Currency              string `json:"currency"`
	PublicKey             string `json:"public_key"`
	Signature             string `json:"signature"`
	RedirectURL           string `json:"redirect_url,omitempty"`
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`
	ExpiresAt             string `json:"expires_at,omitempty"`
}

// CreateSession handles POST /api/v1/checkout/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.ReservationID == "" || req.Provider == "" {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"reservation_id and provider are required"))
		return
	}

	session, err := h.sessions.BuildSession(r.Context(), &checkout.Request{
		ReservationID: req.ReservationID,
		Provider:      models.Provider(req.Provider),
		Customer: models.CustomerContact{
			Email:    req.CustomerEmail,
			FullName: req.CustomerName,
		},
		PaymentMethod: req.PaymentMethod,
		BankCode:      req.BankCode,
		ReturnURL:     req.ReturnURL,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := sessionResponse{
		Provider:              string(session.Provider),
		Reference:             session.Reference,
		AmountMinorUnits:      session.AmountMinorUnits,
		Currency:              session.Currency,
		PublicKey:             session.PublicKey,
		Signature:             session.Signature,
		RedirectURL:           session.RedirectURL,
		ProviderTransactionID: session.ProviderTransactionID,
	}
	if session.ExpiresAt != nil {
		resp.ExpiresAt = session.ExpiresAt.UTC().Format(time.RFC3339)
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

// ListPaymentMethods handles GET /api/v1/payment-methods/{provider},
// surfacing the banks and methods the provider currently offers
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	provider := models.Provider(r.PathValue("provider"))
	if !provider.IsValid() {
		h.respondError(w, domain.ErrUnsupportedProvider)
		return
	}

	methods, err := h.gateways.ListPaymentMethods(r.Context(), provider)
	if err != nil {
		h.respondError(w, err)
		return
	}

	type methodResponse struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	resp := make([]methodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, methodResponse{Code: m.Code, Name: m.Name})
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"payment_methods": resp})
}
