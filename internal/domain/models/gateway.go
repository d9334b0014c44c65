package models

import (
	"time"
)

// Provider identifies a supported payment provider
type Provider string

const (
	ProviderWompi  Provider = "wompi"
	ProviderEpayco Provider = "epayco"
)

// IsValid reports whether the provider is one we know how to construct
func (p Provider) IsValid() bool {
	return p == ProviderWompi || p == ProviderEpayco
}

// GatewayConfig is the stored configuration for one provider.
// Secret fields are encrypted at rest; the factory (or a caller holding a
// credentials snapshot) decrypts them at construction time. Once a config
// has signed a live checkout, callers must rely on the snapshot they took
// at session-build time rather than re-reading the row, so rotating
// secrets never invalidates in-flight reservations.
type GatewayConfig struct {
	ID                       string
	Provider                 Provider
	PublicKey                string
	EncryptedPrivateKey      string
	EncryptedIntegritySecret string
	EncryptedConfirmationKey string // optional, provider-specific (ePayco p_key)
	TestMode                 bool
	Active                   bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// GatewayCredentials is a decrypted snapshot of a GatewayConfig's secrets
type GatewayCredentials struct {
	PublicKey       string
	PrivateKey      string
	IntegritySecret string
	ConfirmationKey string
}

// TransactionStatus is the internal status taxonomy all provider statuses
// map onto
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
	StatusDeclined TransactionStatus = "declined"
	StatusVoided   TransactionStatus = "voided"
	StatusError    TransactionStatus = "error"
)

// IsFinal reports whether the status is terminal at the provider
func (s TransactionStatus) IsFinal() bool {
	return s == StatusApproved || s == StatusDeclined || s == StatusVoided || s == StatusError
}

// TransactionDetails is the normalized view of a provider transaction.
// Adapters build this at the API boundary; raw provider JSON never crosses
// into the reconciler.
type TransactionDetails struct {
	Provider              Provider
	ProviderTransactionID string
	Reference             string
	Status                TransactionStatus
	StatusMessage         string
	AmountMinorUnits      int64
	Currency              string
	PaymentMethod         string
	CustomerEmail         string
	FinalizedAt           *time.Time
	RawPayload            []byte
}

// PaymentMethodInfo describes a payment method or bank offered by a provider
type PaymentMethodInfo struct {
	Code string
	Name string
}

// CustomerContact carries the customer identity attached to a checkout
type CustomerContact struct {
	Email    string
	FullName string
	Phone    string
}
