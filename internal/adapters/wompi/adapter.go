package wompi

import (
	"context"
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

// Config contains endpoints for the Wompi adapter
type Config struct {
	// API base URL
	// Sandbox: https://sandbox.wompi.co/v1
	// Production: https://production.wompi.co/v1
	BaseURL string

	// Hosted checkout URL the widget redirect points at
	CheckoutURL string
}

// DefaultConfig returns endpoints for the given mode
func DefaultConfig(testMode bool) *Config {
	baseURL := "https://production.wompi.co/v1"
	if testMode {
		baseURL = "https://sandbox.wompi.co/v1"
	}
	return &Config{
		BaseURL:     baseURL,
		CheckoutURL: "https://checkout.wompi.co/p/",
	}
}

// Adapter implements ports.PaymentGateway for Wompi. Wompi follows the
// hosted-widget pattern: CreateTransaction builds a signed redirect URL
// without calling the network; the provider creates the transaction when
// the customer lands on the checkout page.
type Adapter struct {
	config     *Config
	creds      models.GatewayCredentials
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewAdapter creates a Wompi adapter with dependency injection
func NewAdapter(config *Config, creds models.GatewayCredentials, httpClient ports.HTTPClient, logger ports.Logger) *Adapter {
	return &Adapter{
		config:     config,
		creds:      creds,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewAdapterWithDefaults creates a Wompi adapter with a default HTTP client
func NewAdapterWithDefaults(config *Config, creds models.GatewayCredentials, logger ports.Logger) *Adapter {
	return NewAdapter(config, creds, &http.Client{Timeout: 15 * time.Second}, logger)
}

// Provider implements ports.PaymentGateway
func (a *Adapter) Provider() models.Provider {
	return models.ProviderWompi
}

// transactionData is Wompi's transaction payload, typed at the API boundary
type transactionData struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	StatusMessage     string `json:"status_message"`
	Reference         string `json:"reference"`
	AmountInCents     int64  `json:"amount_in_cents"`
	Currency          string `json:"currency"`
	PaymentMethodType string `json:"payment_method_type"`
	CustomerEmail     string `json:"customer_email"`
	FinalizedAt       string `json:"finalized_at"`
}

type transactionResponse struct {
	Data transactionData `json:"data"`
}

type transactionListResponse struct {
	Data []transactionData `json:"data"`
}

// CreateTransaction implements ports.PaymentGateway. No network call; the
// hosted widget creates the provider transaction, so this returns the
// signed redirect URL.
func (a *Adapter) CreateTransaction(ctx context.Context, req *ports.CreateTransactionRequest) (*ports.CreateTransactionResult, error) {
	if req.Reference == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "reference is required")
	}
	if req.AmountMinorUnits <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "amount must be positive")
	}

	signature := signing.IntegritySignature(req.Reference, req.AmountMinorUnits, req.Currency, a.creds.IntegritySecret)

	params := url.Values{}
	params.Set("public-key", a.creds.PublicKey)
	params.Set("currency", req.Currency)
	params.Set("amount-in-cents", strconv.FormatInt(req.AmountMinorUnits, 10))
	params.Set("reference", req.Reference)
	params.Set("signature:integrity", signature)
	if req.RedirectURL != "" {
		params.Set("redirect-url", req.RedirectURL)
	}
	if req.Customer.Email != "" {
		params.Set("customer-data:email", req.Customer.Email)
	}

	a.logger.Info("built wompi checkout redirect",
		ports.String("reference", req.Reference),
		ports.Int64("amount_in_cents", req.AmountMinorUnits),
	)

	return &ports.CreateTransactionResult{
		Success:     true,
		Status:      models.StatusPending,
		RedirectURL: a.config.CheckoutURL + "?" + params.Encode(),
	}, nil
}

// GetTransaction implements ports.PaymentGateway
func (a *Adapter) GetTransaction(ctx context.Context, providerTxnID string) (*models.TransactionDetails, error) {
	var resp transactionResponse
	raw, err := a.get(ctx, "/transactions/"+url.PathEscape(providerTxnID), a.creds.PrivateKey, &resp)
	if err != nil {
		return nil, err
	}
	return a.toDetails(resp.Data, raw), nil
}

// GetTransactionByReference implements ports.PaymentGateway
func (a *Adapter) GetTransactionByReference(ctx context.Context, ref string) (*models.TransactionDetails, error) {
	var resp transactionListResponse
	raw, err := a.get(ctx, "/transactions?reference="+url.QueryEscape(ref), a.creds.PrivateKey, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, domain.ErrTxnNotFound.WithDetail("reference", ref)
	}
	return a.toDetails(resp.Data[0], raw), nil
}

// ListPaymentMethods implements ports.PaymentGateway. For Wompi this is
// the PSE financial institution list.
func (a *Adapter) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethodInfo, error) {
	var resp struct {
		Data []struct {
			Code string `json:"financial_institution_code"`
			Name string `json:"financial_institution_name"`
		} `json:"data"`
	}
	if _, err := a.get(ctx, "/pse/financial_institutions", a.creds.PublicKey, &resp); err != nil {
		return nil, err
	}

	methods := make([]models.PaymentMethodInfo, len(resp.Data))
	for i, bank := range resp.Data {
		methods[i] = models.PaymentMethodInfo{Code: bank.Code, Name: bank.Name}
	}
	return methods, nil
}

// TestConnection implements ports.PaymentGateway. Fetches the merchant
// record for the public key; any failure is reported as unreachable, never
// as a hard error.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	var resp struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if _, err := a.get(ctx, "/merchants/"+url.PathEscape(a.creds.PublicKey), "", &resp); err != nil {
		a.logger.Warn("wompi connection test failed", ports.Err(err))
		return false
	}
	return true
}

// webhookEvent is the envelope Wompi posts to the events endpoint
type webhookEvent struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Signature struct {
		Properties []string `json:"properties"`
		Checksum   string   `json:"checksum"`
	} `json:"signature"`
}

// ValidateWebhookSignature implements ports.PaymentGateway. Wompi embeds
// the checksum and the ordered property list in the event itself; the
// checksum covers those property values plus the event timestamp and the
// events secret. When the caller has no out-of-band signature it may pass
// "" and the embedded checksum is verified instead.
func (a *Adapter) ValidateWebhookSignature(payload []byte, signature string) bool {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return false
	}
	if signature == "" {
		signature = event.Signature.Checksum
	}
	if signature == "" || len(event.Signature.Properties) == 0 {
		return false
	}

	values := make([]string, 0, len(event.Signature.Properties))
	for _, prop := range event.Signature.Properties {
		values = append(values, lookupProperty(event.Data, prop))
	}

	secret := a.creds.ConfirmationKey
	if secret == "" {
		secret = a.creds.IntegritySecret
	}
	expected := signing.WompiEventChecksum(values, event.Timestamp, secret)
	return signing.Equal(expected, signature)
}

// lookupProperty resolves a dotted property path like
// "transaction.amount_in_cents" against the event data
func lookupProperty(data map[string]interface{}, path string) string {
	var current interface{} = data
	for len(path) > 0 {
		key := path
		if i := strings.IndexByte(path, '.'); i >= 0 {
			key, path = path[:i], path[i+1:]
		} else {
			path = ""
		}
		node, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current, ok = node[key]
		if !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; amounts are integral minor units
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// toDetails normalizes a Wompi transaction into the internal shape
func (a *Adapter) toDetails(data transactionData, raw []byte) *models.TransactionDetails {
	details := &models.TransactionDetails{
		Provider:              models.ProviderWompi,
		ProviderTransactionID: data.ID,
		Reference:             data.Reference,
		Status:                MapStatus(data.Status).Status,
		StatusMessage:         data.StatusMessage,
		AmountMinorUnits:      data.AmountInCents,
		Currency:              data.Currency,
		PaymentMethod:         data.PaymentMethodType,
		CustomerEmail:         data.CustomerEmail,
		RawPayload:            raw,
	}
	if data.FinalizedAt != "" {
		if t, err := time.Parse(time.RFC3339, data.FinalizedAt); err == nil {
			details.FinalizedAt = &t
		}
	}
	return details
}

// get performs an authenticated GET and normalizes failures to the domain
// error taxonomy. Returns the raw body for audit storage.
func (a *Adapter) get(ctx context.Context, path, bearer string, out interface{}) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+path, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build wompi request", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "wompi request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "read wompi response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrTxnNotFound.WithDetail("path", path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrProviderAuthFailed
	case resp.StatusCode >= 500:
		return nil, domain.NewDomainError(domain.ErrorCodeProviderUnavailable,
			fmt.Sprintf("wompi returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed,
			fmt.Sprintf("wompi rejected request with %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeProviderUnavailable, "parse wompi response", err)
	}
	return body, nil
}

// ExtractEventTransactionID pulls the provider transaction id out of an
// events payload without validating it. Callers validate the signature
// first and then reconcile against the API, never against this payload.
func ExtractEventTransactionID(payload []byte) (string, bool) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", false
	}
	id := lookupProperty(event.Data, "transaction.id")
	return id, id != ""
}
