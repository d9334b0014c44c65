package models

import (
	"time"
)

// TransactionRecord is one row of the settlement ledger, keyed by the
// provider transaction id. Re-queries of the same provider transaction
// update the same row; a new settlement attempt gets a new row.
type TransactionRecord struct {
	ID                    string
	ProviderTransactionID string
	Reference             string
	AmountMinorUnits      int64
	Currency              string
	Status                TransactionStatus
	PaymentMethod         string
	RawProviderPayload    []byte
	CreatedAt             time.Time
	CompletedAt           *time.Time
}
