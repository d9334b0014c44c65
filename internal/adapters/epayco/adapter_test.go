package epayco

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTTPClient struct {
	status      int
	body        string
	lastRequest *http.Request
	lastForm    url.Values
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	s.lastRequest = req
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		if form, err := url.ParseQuery(string(raw)); err == nil {
			s.lastForm = form
		}
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Header:     make(http.Header),
	}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Debug(msg string, fields ...ports.Field) {}

func testCreds() models.GatewayCredentials {
	return models.GatewayCredentials{
		PublicKey:       "pub_epayco",
		PrivateKey:      "prv_epayco",
		IntegritySecret: "integrity",
		ConfirmationKey: "p_key_test",
	}
}

func newTestAdapter(client ports.HTTPClient) *Adapter {
	return NewAdapter(DefaultConfig(), testCreds(), true, client, nopLogger{})
}

func TestCreateTransaction_PSEDebit(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusOK, body: `{
		"success": true,
		"data": {
			"ref_payco": 907243,
			"urlbanco": "https://bank.example.com/pay/907243",
			"cod_respuesta": 3,
			"respuesta": "Pendiente"
		}
	}`}
	adapter := newTestAdapter(client)

	result, err := adapter.CreateTransaction(context.Background(), &ports.CreateTransactionRequest{
		AmountMinorUnits: 250050,
		Currency:         "COP",
		Reference:        "seat_abc_123",
		BankCode:         "1007",
		RedirectURL:      "https://app.example.com/return",
		Customer:         models.CustomerContact{Email: "buyer@example.com", FullName: "Test Buyer"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "907243", result.ProviderTransactionID)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, "https://bank.example.com/pay/907243", result.RedirectURL)

	// amount goes over the wire in whole units with two decimals
	assert.Equal(t, "2500.50", client.lastForm.Get("value"))
	assert.Equal(t, "pub_epayco", client.lastForm.Get("public_key"))
	assert.Equal(t, "1007", client.lastForm.Get("bank"))
	assert.Equal(t, "seat_abc_123", client.lastForm.Get("invoice"))
	assert.Equal(t, "true", client.lastForm.Get("test"))
}

func TestCreateTransaction_RequiresBankAndReference(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{})

	_, err := adapter.CreateTransaction(context.Background(), &ports.CreateTransactionRequest{
		Reference: "seat_x_1",
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationFailed))

	_, err = adapter.CreateTransaction(context.Background(), &ports.CreateTransactionRequest{
		BankCode: "1007",
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationFailed))
}

func TestCreateTransaction_ProviderRejection(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusOK, body: `{
		"success": false,
		"textResponse": "invalid bank"
	}`}
	adapter := newTestAdapter(client)

	result, err := adapter.CreateTransaction(context.Background(), &ports.CreateTransactionRequest{
		AmountMinorUnits: 100000,
		Currency:         "COP",
		Reference:        "seat_abc_1",
		BankCode:         "9999",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, "invalid bank", result.Message)
}

func TestGetTransaction_Approved(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusOK, body: `{
		"success": true,
		"data": {
			"x_cust_id_cliente": 85,
			"x_ref_payco": 907243,
			"x_id_invoice": "seat_abc_123",
			"x_transaction_id": "12345",
			"x_amount": 2500.50,
			"x_currency_code": "COP",
			"x_cod_response": 1,
			"x_response": "Aceptada",
			"x_franchise": "PSE",
			"x_customer_email": "buyer@example.com"
		}
	}`}
	adapter := newTestAdapter(client)

	details, err := adapter.GetTransaction(context.Background(), "907243")
	require.NoError(t, err)

	assert.Equal(t, models.ProviderEpayco, details.Provider)
	assert.Equal(t, "907243", details.ProviderTransactionID)
	assert.Equal(t, "seat_abc_123", details.Reference)
	assert.Equal(t, models.StatusApproved, details.Status)
	assert.Equal(t, int64(250050), details.AmountMinorUnits)
	assert.Equal(t, "COP", details.Currency)
}

func TestGetTransaction_NotFound(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{status: http.StatusOK, body: `{"success": false}`})

	_, err := adapter.GetTransaction(context.Background(), "999")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeTxnNotFound))
}

func TestGetTransaction_ProviderDown(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{status: http.StatusBadGateway, body: ""})

	_, err := adapter.GetTransaction(context.Background(), "907243")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeProviderUnavailable))
}

func TestMapStatus_Total(t *testing.T) {
	assert.Equal(t, models.StatusApproved, MapStatus("1").Status)
	assert.Equal(t, models.StatusDeclined, MapStatus("2").Status)
	assert.Equal(t, models.StatusPending, MapStatus("3").Status)
	assert.Equal(t, models.StatusError, MapStatus("4").Status)
	assert.Equal(t, models.StatusVoided, MapStatus("6").Status)
	assert.Equal(t, models.StatusDeclined, MapStatus("10").Status)
	assert.Equal(t, models.StatusVoided, MapStatus("11").Status)

	// textual fallbacks and unknowns
	assert.Equal(t, models.StatusApproved, MapStatus("Aceptada").Status)
	assert.Equal(t, models.StatusPending, MapStatus("99").Status)
	assert.False(t, MapStatus("99").IsFinal)
}

func confirmationForm(pKey string) url.Values {
	form := url.Values{}
	form.Set("x_cust_id_cliente", "85")
	form.Set("x_ref_payco", "907243")
	form.Set("x_transaction_id", "12345")
	form.Set("x_amount", "2500.50")
	form.Set("x_currency_code", "COP")
	form.Set("x_cod_response", "1")
	form.Set("x_signature", signing.EpaycoConfirmationSignature(
		"85", pKey, "907243", "12345", "2500.50", "COP",
	))
	return form
}

func TestValidateWebhookSignature_FormEncoded(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{})

	valid := confirmationForm("p_key_test")
	assert.True(t, adapter.ValidateWebhookSignature([]byte(valid.Encode()), ""))

	wrongKey := confirmationForm("other_key")
	assert.False(t, adapter.ValidateWebhookSignature([]byte(wrongKey.Encode()), ""))

	// amount mutated after signing
	tampered := confirmationForm("p_key_test")
	tampered.Set("x_amount", "1.00")
	assert.False(t, adapter.ValidateWebhookSignature([]byte(tampered.Encode()), ""))
}

func TestValidateWebhookSignature_JSON(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{})

	sig := signing.EpaycoConfirmationSignature("85", "p_key_test", "907243", "12345", "2500.50", "COP")
	payload := []byte(`{
		"x_cust_id_cliente": 85,
		"x_ref_payco": 907243,
		"x_transaction_id": "12345",
		"x_amount": 2500.50,
		"x_currency_code": "COP",
		"x_signature": "` + sig + `"
	}`)
	assert.True(t, adapter.ValidateWebhookSignature(payload, ""))
}

func TestExtractConfirmationTransactionID(t *testing.T) {
	form := confirmationForm("p_key_test")

	id, ok := ExtractConfirmationTransactionID([]byte(form.Encode()))
	require.True(t, ok)
	assert.Equal(t, "907243", id)

	_, ok = ExtractConfirmationTransactionID([]byte("x_amount=1.00"))
	assert.False(t, ok)
}

func TestConnection_LoginProvesCredentials(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusOK, body: `{"token": "jwt-abc"}`}
	adapter := newTestAdapter(stub)

	assert.True(t, adapter.TestConnection(context.Background()))
	assert.Contains(t, stub.lastRequest.URL.Path, "/login")
}

func TestConnection_RejectedCredentials(t *testing.T) {
	adapter := newTestAdapter(&stubHTTPClient{status: http.StatusOK, body: `{"token": ""}`})

	assert.False(t, adapter.TestConnection(context.Background()))
}
