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

// PlanRepository implements ports.PlanRepository with pgx
type PlanRepository struct {
	db ports.DBPort
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db ports.DBPort) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetByID loads a plan definition
func (r *PlanRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*models.Plan, error) {
	planID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrPlanNotFound
	}

	q := executor(r.db.GetDB(), db)
	row := q.QueryRow(ctx, `
		SELECT id, name, list_price, currency, period_days, seat_capacity,
		       created_at, updated_at
		FROM plans
		WHERE id = $1`,
		planID,
	)

	var (
		pid   uuid.UUID
		price pgtype.Numeric
		plan  models.Plan
	)
	err = row.Scan(
		&pid, &plan.Name, &price, &plan.Currency, &plan.PeriodDays,
		&plan.SeatCapacity, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	listPrice, err := pgNumericToDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("decode plan price: %w", err)
	}

	plan.ID = pid.String()
	plan.ListPrice = listPrice
	return &plan, nil
}
