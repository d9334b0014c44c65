package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// TransactionRepository owns the settlement ledger. Rows are keyed by
// provider transaction id; re-running a reconciliation updates the same
// row instead of inserting a duplicate.
type TransactionRepository interface {
	// Upsert inserts the record or refreshes the existing row for the same
	// provider transaction id
	Upsert(ctx context.Context, tx DBTX, record *models.TransactionRecord) error

	// GetByProviderTransactionID loads a ledger row
	GetByProviderTransactionID(ctx context.Context, db DBTX, providerTxnID string) (*models.TransactionRecord, error)

	// GetByReference loads a ledger row by checkout reference
	GetByReference(ctx context.Context, db DBTX, reference string) (*models.TransactionRecord, error)
}
