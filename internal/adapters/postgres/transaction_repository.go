package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/seatflow/checkout-service/internal/domain"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

// TransactionRepository implements ports.TransactionRepository with pgx
type TransactionRepository struct {
	db ports.DBPort
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db ports.DBPort) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert inserts the ledger row or refreshes the existing row for the same
// provider transaction id. The conflict target makes duplicate
// reconciliations converge on one row instead of appending copies.
func (r *TransactionRepository) Upsert(ctx context.Context, tx ports.DBTX, record *models.TransactionRecord) error {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid transaction ID: %w", err)
	}

	payload := record.RawProviderPayload
	if payload == nil {
		payload = []byte("{}")
	}

	q := executor(r.db.GetDB(), tx)
	_, err = q.Exec(ctx, `
		INSERT INTO transactions (
			id, provider_transaction_id, reference, amount_minor_units, currency,
			status, payment_method, raw_provider_payload, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), $9)
		ON CONFLICT (provider_transaction_id) DO UPDATE SET
			status = EXCLUDED.status,
			payment_method = EXCLUDED.payment_method,
			raw_provider_payload = EXCLUDED.raw_provider_payload,
			completed_at = EXCLUDED.completed_at`,
		id,
		record.ProviderTransactionID,
		record.Reference,
		record.AmountMinorUnits,
		record.Currency,
		string(record.Status),
		nullText(record.PaymentMethod),
		payload,
		nullTime(record.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// GetByProviderTransactionID loads a ledger row
func (r *TransactionRepository) GetByProviderTransactionID(ctx context.Context, db ports.DBTX, providerTxnID string) (*models.TransactionRecord, error) {
	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT id, provider_transaction_id, reference, amount_minor_units, currency,
		       status, payment_method, raw_provider_payload, created_at, completed_at
		FROM transactions
		WHERE provider_transaction_id = $1`,
		providerTxnID,
	)
	return scanTransaction(row)
}

// GetByReference loads a ledger row by checkout reference
func (r *TransactionRepository) GetByReference(ctx context.Context, db ports.DBTX, ref string) (*models.TransactionRecord, error) {
	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT id, provider_transaction_id, reference, amount_minor_units, currency,
		       status, payment_method, raw_provider_payload, created_at, completed_at
		FROM transactions
		WHERE reference = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		ref,
	)
	return scanTransaction(row)
}

func scanTransaction(row pgx.Row) (*models.TransactionRecord, error) {
	var (
		id          uuid.UUID
		method      pgtype.Text
		completedAt pgtype.Timestamptz
		status      string
		record      models.TransactionRecord
	)
	err := row.Scan(
		&id, &record.ProviderTransactionID, &record.Reference, &record.AmountMinorUnits,
		&record.Currency, &status, &method, &record.RawProviderPayload,
		&record.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTxnNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	record.ID = id.String()
	record.Status = models.TransactionStatus(status)
	record.PaymentMethod = method.String
	record.CompletedAt = timePtr(completedAt)
	return &record, nil
}
