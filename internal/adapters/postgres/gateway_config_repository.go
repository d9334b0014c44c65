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

// GatewayConfigRepository implements ports.GatewayConfigRepository with pgx.
// Secrets come back encrypted; decryption is the factory's job.
type GatewayConfigRepository struct {
	db ports.DBPort
}

// NewGatewayConfigRepository creates a new gateway config repository
func NewGatewayConfigRepository(db ports.DBPort) *GatewayConfigRepository {
	return &GatewayConfigRepository{db: db}
}

const gatewayConfigColumns = `
	id, provider, public_key, encrypted_private_key,
	encrypted_integrity_secret, encrypted_confirmation_key,
	test_mode, active, created_at, updated_at`

// GetActiveByProvider loads the active config for one provider
func (r *GatewayConfigRepository) GetActiveByProvider(ctx context.Context, db ports.DBTX, provider models.Provider) (*models.GatewayConfig, error) {
	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT `+gatewayConfigColumns+`
		FROM gateway_configs
		WHERE provider = $1 AND active = true
		ORDER BY updated_at DESC
		LIMIT 1`,
		string(provider),
	)

	config, err := scanGatewayConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConfigurationMissing
		}
		return nil, err
	}
	return config, nil
}

// ListActive returns every active config
func (r *GatewayConfigRepository) ListActive(ctx context.Context, db ports.DBTX) ([]*models.GatewayConfig, error) {
	q := executor(r.db.GetDB(), db)
	rows, err := q.Query(ctx, `
		SELECT `+gatewayConfigColumns+`
		FROM gateway_configs
		WHERE active = true
		ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("list gateway configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.GatewayConfig
	for rows.Next() {
		config, err := scanGatewayConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list gateway configs: %w", err)
	}
	return configs, nil
}

func scanGatewayConfig(row pgx.Row) (*models.GatewayConfig, error) {
	var (
		id              uuid.UUID
		provider        string
		confirmationKey pgtype.Text
		config          models.GatewayConfig
	)
	err := row.Scan(
		&id, &provider, &config.PublicKey, &config.EncryptedPrivateKey,
		&config.EncryptedIntegritySecret, &confirmationKey,
		&config.TestMode, &config.Active, &config.CreatedAt, &config.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan gateway config: %w", err)
	}

	config.ID = id.String()
	config.Provider = models.Provider(provider)
	config.EncryptedConfirmationKey = confirmationKey.String
	return &config, nil
}
