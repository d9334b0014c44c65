package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Debug(msg string, fields ...ports.Field) {}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"reservation not found", domain.ErrReservationNotFound, http.StatusNotFound, "RESERVATION_NOT_FOUND"},
		{"plan not found", domain.ErrPlanNotFound, http.StatusNotFound, "PLAN_NOT_FOUND"},
		{"expired", domain.ErrReservationExpired, http.StatusGone, "RESERVATION_EXPIRED"},
		{"invalid state", domain.ErrReservationInvalidState, http.StatusConflict, "RESERVATION_INVALID_STATE"},
		{"seats exhausted", domain.ErrSeatsExhausted, http.StatusConflict, "RESERVATION_SEATS_EXHAUSTED"},
		{"validation", domain.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unsupported provider", domain.ErrUnsupportedProvider, http.StatusBadRequest, "PROVIDER_UNSUPPORTED"},
		{"bad signature", domain.ErrSignatureMismatch, http.StatusUnauthorized, "SIGNATURE_MISMATCH"},
		{"provider down", domain.ErrProviderUnavailable, http.StatusBadGateway, "PROVIDER_UNAVAILABLE"},
		{"config missing", domain.ErrConfigurationMissing, http.StatusServiceUnavailable, "CONFIG_MISSING"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	h := &Handler{logger: nopLogger{}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}

func TestRespondError_NeverLeaksInternalDetails(t *testing.T) {
	h := &Handler{logger: nopLogger{}}
	rec := httptest.NewRecorder()

	h.respondError(rec, errors.New("pq: connection refused host=10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"organization_id":"org-1","surprise":true}`))

	var dst struct {
		OrganizationID string `json:"organization_id"`
	}
	err := decodeJSON(req, &dst)

	assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
}

func TestDecodeJSON_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))

	var dst struct{}
	err := decodeJSON(req, &dst)

	assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
}
