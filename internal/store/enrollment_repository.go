/**
 * @description
 * Data access for health-insurance enrollments created by the health flow.
 */
package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// PostgresEnrollmentRepository is the PostgreSQL implementation of EnrollmentRepository.
type PostgresEnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewPostgresEnrollmentRepository creates a new instance of PostgresEnrollmentRepository.
func NewPostgresEnrollmentRepository(db *pgxpool.Pool) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{db: db}
}

// Create inserts a completed enrollment record.
func (r *PostgresEnrollmentRepository) Create(ctx context.Context, enrollment *domain.HealthEnrollment) error {
	query := `
        INSERT INTO health_enrollments (phone, region, lga, nin, tier, full_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query,
		enrollment.Phone,
		enrollment.Region,
		enrollment.LGA,
		enrollment.NIN,
		enrollment.Tier,
		enrollment.FullName,
		enrollment.CreatedAt,
	)
	if err != nil {
		log.Printf("Error inserting enrollment for %s: %v", enrollment.Phone, err)
		return err
	}
	return nil
}
