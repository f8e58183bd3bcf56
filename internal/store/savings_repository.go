/**
 * @description
 * Data access for durable fixed-savings plans. Unlike flow scratch, these
 * rows outlive the conversation that created them.
 */
package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// PostgresSavingsPlanRepository is the PostgreSQL implementation of SavingsPlanRepository.
type PostgresSavingsPlanRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSavingsPlanRepository creates a new instance of PostgresSavingsPlanRepository.
func NewPostgresSavingsPlanRepository(db *pgxpool.Pool) *PostgresSavingsPlanRepository {
	return &PostgresSavingsPlanRepository{db: db}
}

// Create inserts a new savings plan row.
func (r *PostgresSavingsPlanRepository) Create(ctx context.Context, plan *domain.SavingsPlan) error {
	query := `
        INSERT INTO savings_plans (phone, plan_name, duration, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, query,
		plan.Phone,
		plan.PlanName,
		plan.Duration,
		plan.Amount,
		plan.CreatedAt,
	)
	if err != nil {
		log.Printf("Error inserting savings plan for %s: %v", plan.Phone, err)
		return err
	}
	return nil
}
