package epayco

import (
	"strings"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// StatusInfo describes how an ePayco response code maps into the internal
// taxonomy
type StatusInfo struct {
	Code        string
	Display     string
	Status      models.TransactionStatus
	IsFinal     bool
	UserMessage string
}

// ePayco x_cod_response codes and their textual equivalents, per the
// confirmation API
var responseCodes = map[string]StatusInfo{
	"1": {
		Code:        "1",
		Display:     "Aceptada",
		Status:      models.StatusApproved,
		IsFinal:     true,
		UserMessage: "Payment approved",
	},
	"2": {
		Code:        "2",
		Display:     "Rechazada",
		Status:      models.StatusDeclined,
		IsFinal:     true,
		UserMessage: "Payment declined. Please try again with a different payment method.",
	},
	"3": {
		Code:        "3",
		Display:     "Pendiente",
		Status:      models.StatusPending,
		UserMessage: "Payment is being processed.",
	},
	"4": {
		Code:        "4",
		Display:     "Fallida",
		Status:      models.StatusError,
		IsFinal:     true,
		UserMessage: "Payment failed. Please try again.",
	},
	"6": {
		Code:        "6",
		Display:     "Reversada",
		Status:      models.StatusVoided,
		IsFinal:     true,
		UserMessage: "Payment was reversed.",
	},
	"10": {
		Code:        "10",
		Display:     "Abandonada",
		Status:      models.StatusDeclined,
		IsFinal:     true,
		UserMessage: "Payment was abandoned.",
	},
	"11": {
		Code:        "11",
		Display:     "Cancelada",
		Status:      models.StatusVoided,
		IsFinal:     true,
		UserMessage: "Payment was cancelled.",
	},
}

// textual statuses some ePayco responses carry instead of the numeric code
var textStatuses = map[string]string{
	"aceptada":   "1",
	"rechazada":  "2",
	"pendiente":  "3",
	"fallida":    "4",
	"reversada":  "6",
	"abandonada": "10",
	"cancelada":  "11",
}

// MapStatus maps an ePayco response code or status text to the internal
// taxonomy. Total: unrecognized values map to pending.
func MapStatus(codeOrText string) StatusInfo {
	key := strings.TrimSpace(codeOrText)
	if code, ok := textStatuses[strings.ToLower(key)]; ok {
		key = code
	}
	if info, ok := responseCodes[key]; ok {
		return info
	}
	return StatusInfo{
		Code:        codeOrText,
		Display:     "Desconocida",
		Status:      models.StatusPending,
		UserMessage: "Payment is being processed.",
	}
}
