/**
 * @description
 * This file defines the interfaces for the data access layer (repositories).
 * Defining interfaces allows for dependency injection and easy stubbing in
 * engine tests, keeping the flow machines independent of Postgres.
 *
 * @notes
 * - Any component that needs to interact with the database should depend on
 *   these interfaces, not on the concrete PostgreSQL implementation.
 */
package store

import (
	"context"
	"errors"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository is the per-phone user record store. Update has partial-patch
// semantics: unmentioned fields are unchanged, nil values clear the column.
type UserRepository interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, phone string, patch domain.Patch) error
}

// VoucherRepository looks up and retires voucher tokens.
type VoucherRepository interface {
	GetByValue(ctx context.Context, value string) (*domain.VoucherToken, error)
	SetStatus(ctx context.Context, value, status string) error
}

// EnrollmentRepository persists completed health-insurance enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.HealthEnrollment) error
}

// SavingsPlanRepository persists durable fixed-savings plans.
type SavingsPlanRepository interface {
	Create(ctx context.Context, plan *domain.SavingsPlan) error
}
