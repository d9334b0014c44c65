package epayco

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/signing"
)

// Config contains endpoints for the ePayco adapter
type Config struct {
	// REST endpoint for PSE debits and bank listing
	RestURL string

	// Validation endpoint for transaction lookup by ref_payco
	ValidationURL string

	// Apify endpoint for authenticated detail queries
	ApifyURL string
}

// DefaultConfig returns the standard ePayco endpoints. ePayco separates
// test from production by credentials, not by host.
func DefaultConfig() *Config {
	return &Config{
		RestURL:       "https://secure.payco.co",
		ValidationURL: "https://secure.epayco.co",
		ApifyURL:      "https://apify.epayco.co",
	}
}

// Adapter implements ports.PaymentGateway for ePayco. Unlike the hosted
// widget pattern, transaction creation here calls the provider's API (PSE
// debit) and the customer is redirected to the bank URL the provider
// returns.
type Adapter struct {
	config     *Config
	creds      models.GatewayCredentials
	testMode   bool
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewAdapter creates an ePayco adapter with dependency injection
func NewAdapter(config *Config, creds models.GatewayCredentials, testMode bool, httpClient ports.HTTPClient, logger ports.Logger) *Adapter {
	return &Adapter{
		config:     config,
		creds:      creds,
		testMode:   testMode,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewAdapterWithDefaults creates an ePayco adapter with a default HTTP client
func NewAdapterWithDefaults(config *Config, creds models.GatewayCredentials, testMode bool, logger ports.Logger) *Adapter {
	return NewAdapter(config, creds, testMode, &http.Client{Timeout: 20 * time.Second}, logger)
}

// Provider implements ports.PaymentGateway
func (a *Adapter) Provider() models.Provider {
	return models.ProviderEpayco
}

// pseDebitResponse is ePayco's PSE creation payload
type pseDebitResponse struct {
	Success bool `json:"success"`
	Data    struct {
		RefPayco      json.Number `json:"ref_payco"`
		URLBank       string      `json:"urlbanco"`
		CodResponse   json.Number `json:"cod_respuesta"`
		Response      string      `json:"respuesta"`
		TransactionID string      `json:"transactionID"`
	} `json:"data"`
	TextResponse string `json:"textResponse"`
}

// CreateTransaction implements ports.PaymentGateway. Supports the PSE bank
// debit flow; the result carries the bank's redirect URL. Card payments go
// through the hosted checkout and are never created server-side.
func (a *Adapter) CreateTransaction(ctx context.Context, req *ports.CreateTransactionRequest) (*ports.CreateTransactionResult, error) {
	if req.BankCode == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "bank code is required for pse transactions")
	}
	if req.Reference == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "reference is required")
	}

	// ePayco PSE takes the amount in whole currency units
	form := url.Values{}
	form.Set("public_key", a.creds.PublicKey)
	form.Set("bank", req.BankCode)
	form.Set("invoice", req.Reference)
	form.Set("value", strconv.FormatFloat(float64(req.AmountMinorUnits)/100, 'f', 2, 64))
	form.Set("currency", req.Currency)
	form.Set("description", "seat reservation "+req.Reference)
	form.Set("email", req.Customer.Email)
	form.Set("name", req.Customer.FullName)
	form.Set("cell_phone", req.Customer.Phone)
	form.Set("url_response", req.RedirectURL)
	form.Set("test", strconv.FormatBool(a.testMode))

	var resp pseDebitResponse
	if _, err := a.postForm(ctx, a.config.RestURL+"/restpagos/pagos/debitos.json", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &ports.CreateTransactionResult{
			Success: false,
			Status:  models.StatusError,
			Message: resp.TextResponse,
		}, nil
	}

	a.logger.Info("created epayco pse transaction",
		ports.String("reference", req.Reference),
		ports.String("ref_payco", resp.Data.RefPayco.String()),
	)

	return &ports.CreateTransactionResult{
		Success:               true,
		ProviderTransactionID: resp.Data.RefPayco.String(),
		Status:                MapStatus(resp.Data.CodResponse.String()).Status,
		RedirectURL:           resp.Data.URLBank,
		Message:               resp.Data.Response,
	}, nil
}

// validationData is ePayco's transaction detail payload, typed at the API
// boundary
type validationData struct {
	CustIDCliente json.Number `json:"x_cust_id_cliente"`
	RefPayco      json.Number `json:"x_ref_payco"`
	Invoice       string      `json:"x_id_invoice"`
	TransactionID string      `json:"x_transaction_id"`
	Amount        json.Number `json:"x_amount"`
	CurrencyCode  string      `json:"x_currency_code"`
	CodResponse   json.Number `json:"x_cod_response"`
	Response      string      `json:"x_response"`
	ResponseText  string      `json:"x_response_reason_text"`
	Franchise     string      `json:"x_franchise"`
	Date          string      `json:"x_transaction_date"`
	CustomerEmail string      `json:"x_customer_email"`
	Signature     string      `json:"x_signature"`
}

type validationResponse struct {
	Success bool           `json:"success"`
	Data    validationData `json:"data"`
}

// GetTransaction implements ports.PaymentGateway. The provider transaction
// id for ePayco is the ref_payco.
func (a *Adapter) GetTransaction(ctx context.Context, providerTxnID string) (*models.TransactionDetails, error) {
	var resp validationResponse
	raw, err := a.get(ctx, a.config.ValidationURL+"/validation/v1/reference/"+url.PathEscape(providerTxnID), &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, domain.ErrTxnNotFound.WithDetail("ref_payco", providerTxnID)
	}
	return a.toDetails(resp.Data, raw), nil
}

// GetTransactionByReference implements ports.PaymentGateway. Looks the
// transaction up through the authenticated apify detail endpoint by our
// invoice reference.
func (a *Adapter) GetTransactionByReference(ctx context.Context, ref string) (*models.TransactionDetails, error) {
	token, err := a.login(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"filter": map[string]string{"invoiceId": ref},
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal detail filter", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.ApifyURL+"/transaction/detail", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build detail request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Rows []validationData `json:"rows"`
		} `json:"data"`
	}
	raw, err := a.do(req, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data.Rows) == 0 {
		return nil, domain.ErrTxnNotFound.WithDetail("reference", ref)
	}
	return a.toDetails(resp.Data.Rows[0], raw), nil
}

// ListPaymentMethods implements ports.PaymentGateway: the PSE bank list
func (a *Adapter) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethodInfo, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			Code string `json:"bankCode"`
			Name string `json:"bankName"`
		} `json:"data"`
	}
	endpoint := a.config.RestURL + "/restpagos/pse/bancos.json?public_key=" + url.QueryEscape(a.creds.PublicKey)
	if _, err := a.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	methods := make([]models.PaymentMethodInfo, len(resp.Data))
	for i, bank := range resp.Data {
		methods[i] = models.PaymentMethodInfo{Code: bank.Code, Name: bank.Name}
	}
	return methods, nil
}

// TestConnection implements ports.PaymentGateway: a successful apify login
// proves both reachability and credentials
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if _, err := a.login(ctx); err != nil {
		a.logger.Warn("epayco connection test failed", ports.Err(err))
		return false
	}
	return true
}

// ValidateWebhookSignature implements ports.PaymentGateway. ePayco posts
// form-encoded confirmations signed with
// sha256(cust_id^p_key^ref_payco^transaction_id^amount^currency).
// The signature argument overrides the embedded x_signature when the
// caller extracted it separately.
func (a *Adapter) ValidateWebhookSignature(payload []byte, signature string) bool {
	fields, ok := parseConfirmation(payload)
	if !ok {
		return false
	}
	if signature == "" {
		signature = fields["x_signature"]
	}
	if signature == "" {
		return false
	}

	expected := signing.EpaycoConfirmationSignature(
		fields["x_cust_id_cliente"],
		a.creds.ConfirmationKey,
		fields["x_ref_payco"],
		fields["x_transaction_id"],
		fields["x_amount"],
		fields["x_currency_code"],
	)
	return signing.Equal(expected, signature)
}

// parseConfirmation accepts either form-encoded or JSON confirmation bodies
func parseConfirmation(payload []byte) (map[string]string, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, false
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				fields[k] = s
				continue
			}
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				fields[k] = n.String()
			}
		}
		return fields, true
	}

	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, true
}

// login obtains an apify bearer token using basic auth over the key pair
func (a *Adapter) login(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.ApifyURL+"/login", nil)
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeInternalError, "build login request", err)
	}
	pair := a.creds.PublicKey + ":" + a.creds.PrivateKey
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(pair)))

	var resp struct {
		Token string `json:"token"`
	}
	if _, err := a.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", domain.ErrProviderAuthFailed
	}
	return resp.Token, nil
}

// toDetails normalizes an ePayco transaction into the internal shape
func (a *Adapter) toDetails(data validationData, raw []byte) *models.TransactionDetails {
	amount, _ := data.Amount.Float64()

	details := &models.TransactionDetails{
		Provider:              models.ProviderEpayco,
		ProviderTransactionID: data.RefPayco.String(),
		Reference:             data.Invoice,
		Status:                MapStatus(data.CodResponse.String()).Status,
		StatusMessage:         data.ResponseText,
		AmountMinorUnits:      int64(amount*100 + 0.5),
		Currency:              strings.ToUpper(data.CurrencyCode),
		PaymentMethod:         data.Franchise,
		CustomerEmail:         data.CustomerEmail,
		RawPayload:            raw,
	}
	if data.Date != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", data.Date); err == nil {
			details.FinalizedAt = &t
		}
	}
	return details
}

func (a *Adapter) get(ctx context.Context, endpoint string, out interface{}) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build epayco request", err)
	}
	req.Header.Set("Accept", "application/json")
	return a.do(req, out)
}

func (a *Adapter) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build epayco request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return a.do(req, out)
}

// do executes the request and normalizes failures to the domain taxonomy
func (a *Adapter) do(req *http.Request, out interface{}) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "epayco request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "read epayco response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrTxnNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrProviderAuthFailed
	case resp.StatusCode >= 500:
		return nil, domain.NewDomainError(domain.ErrorCodeProviderUnavailable,
			fmt.Sprintf("epayco returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			fmt.Sprintf("epayco rejected request with %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "parse epayco response", err)
	}
	return body, nil
}

// ExtractConfirmationTransactionID pulls the ref_payco out of a
// confirmation payload without validating it. Callers validate the
// signature first and then reconcile against the validation API, never
// against this payload.
func ExtractConfirmationTransactionID(payload []byte) (string, bool) {
	fields, ok := parseConfirmation(payload)
	if !ok {
		return "", false
	}
	ref := fields["x_ref_payco"]
	return ref, ref != ""
}
