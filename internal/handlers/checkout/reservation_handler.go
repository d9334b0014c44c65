package checkout

import (
	"net/http"
	"time"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
)

type createReservationRequest struct {
	OrganizationID string `json:"organization_id"`
	PlanID         string `json:"plan_id"`
}

type reservationResponse struct {
	ID               string `json:"id"`
	SeatNumber       int64  `json:"seat_number"`
	OrganizationID   string `json:"organization_id"`
	PlanID           string `json:"plan_id"`
	LockedPrice      string `json:"locked_price"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

func toReservationResponse(r *models.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:               r.ID,
		SeatNumber:       r.SeatNumber,
		OrganizationID:   r.OrganizationID,
		PlanID:           r.PlanID,
		LockedPrice:      r.LockedPrice.String(),
		Currency:         r.Currency,
		Status:           string(r.Status),
		RemainingSeconds: int64(r.RemainingTTL(time.Now()).Seconds()),
	}
	if r.ExpiresAt != nil {
		resp.ExpiresAt = r.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// CreateReservation handles POST /api/v1/reservations
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.OrganizationID == "" || req.PlanID == "" {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"organization_id and plan_id are required"))
		return
	}

	reservation, err := h.reservations.Create(r.Context(), req.OrganizationID, req.PlanID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

// GetReservation handles GET /api/v1/reservations/{id}.
// Reading an overdue reservation expires it, so the response always
// reflects the TTL.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reservations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toReservationResponse(reservation))
}

// ExtendReservation handles POST /api/v1/reservations/{id}/extend.
// Extension is only granted near expiry and within the reservation's
// lifetime ceiling; outside that window the current state comes back
// unchanged.
func (h *Handler) ExtendReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reservations.Extend(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toReservationResponse(reservation))
}

// CancelReservation handles DELETE /api/v1/reservations/{id}
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.reservations.Cancel(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
