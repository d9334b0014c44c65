package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/seatflow/checkout-service/internal/domain/models"
	"github.com/seatflow/checkout-service/internal/domain/ports"
)

// ActivityRepository implements ports.ActivityRepository with pgx.
// The feed is append only; there is no update or delete path.
type ActivityRepository struct {
	db ports.DBPort
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db ports.DBPort) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends one audit feed entry
func (r *ActivityRepository) Insert(ctx context.Context, tx ports.DBTX, entry *models.ActivityEntry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("invalid activity ID: %w", err)
	}
	orgID, err := uuid.Parse(entry.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization ID: %w", err)
	}

	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode activity metadata: %w", err)
		}
	}

	q := executor(r.db.GetDB(), tx)
	_, err = q.Exec(ctx, `
		INSERT INTO activity_entries (id, organization_id, kind, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		id,
		orgID,
		string(entry.Kind),
		entry.Message,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}
