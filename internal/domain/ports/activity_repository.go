package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// ActivityRepository appends audit feed entries
type ActivityRepository interface {
	Insert(ctx context.Context, tx DBTX, entry *models.ActivityEntry) error
}
