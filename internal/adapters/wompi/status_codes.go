package wompi

import (
	"strings"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// StatusInfo describes how a Wompi transaction status maps into the
// internal taxonomy
type StatusInfo struct {
	ProviderStatus string
	Status         models.TransactionStatus
	IsFinal        bool
	UserMessage    string
}

// Wompi transaction statuses, per the transactions API
var statusCodes = map[string]StatusInfo{
	"APPROVED": {
		ProviderStatus: "APPROVED",
		Status:         models.StatusApproved,
		IsFinal:        true,
		UserMessage:    "Payment approved",
	},
	"DECLINED": {
		ProviderStatus: "DECLINED",
		Status:         models.StatusDeclined,
		IsFinal:        true,
		UserMessage:    "Payment declined. Please try again with a different payment method.",
	},
	"VOIDED": {
		ProviderStatus: "VOIDED",
		Status:         models.StatusVoided,
		IsFinal:        true,
		UserMessage:    "Payment was voided.",
	},
	"ERROR": {
		ProviderStatus: "ERROR",
		Status:         models.StatusError,
		IsFinal:        true,
		UserMessage:    "Payment failed due to a provider error. Please try again.",
	},
	"PENDING": {
		ProviderStatus: "PENDING",
		Status:         models.StatusPending,
		UserMessage:    "Payment is being processed.",
	},
}

// MapStatus maps a Wompi status string to the internal taxonomy. Total:
// unknown statuses map to pending rather than failing, so a new provider
// status can never break reconciliation.
func MapStatus(providerStatus string) StatusInfo {
	if info, ok := statusCodes[strings.ToUpper(strings.TrimSpace(providerStatus))]; ok {
		return info
	}
	return StatusInfo{
		ProviderStatus: providerStatus,
		Status:         models.StatusPending,
		UserMessage:    "Payment is being processed.",
	}
}
