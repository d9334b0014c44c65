package ports

import (
	"context"

	"github.com/seatflow/checkout-service/internal/domain/models"
)

// PlanRepository reads plan definitions maintained by the surrounding CRUD
// system; this pipeline only consumes them
type PlanRepository interface {
	GetByID(ctx context.Context, db DBTX, id string) (*models.Plan, error)
}
