/**
 * @description
 * Data access for voucher tokens. The voucher flow reads a token by its value
 * and retires it after the loading transfer settles.
 */
package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// PostgresVoucherRepository is the PostgreSQL implementation of VoucherRepository.
type PostgresVoucherRepository struct {
	db *pgxpool.Pool
}

// NewPostgresVoucherRepository creates a new instance of PostgresVoucherRepository.
func NewPostgresVoucherRepository(db *pgxpool.Pool) *PostgresVoucherRepository {
	return &PostgresVoucherRepository{db: db}
}

// GetByValue fetches a token by its value.
func (r *PostgresVoucherRepository) GetByValue(ctx context.Context, value string) (*domain.VoucherToken, error) {
	query := `SELECT token_value, status, face_value FROM vouchers WHERE token_value = $1`
	var t domain.VoucherToken
	err := r.db.QueryRow(ctx, query, value).Scan(&t.Value, &t.Status, &t.FaceValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Printf("Error fetching voucher: %v", err)
		return nil, err
	}
	return &t, nil
}

// SetStatus updates a token's status.
func (r *PostgresVoucherRepository) SetStatus(ctx context.Context, value, status string) error {
	query := `UPDATE vouchers SET status = $2 WHERE token_value = $1`
	tag, err := r.db.Exec(ctx, query, value, status)
	if err != nil {
		log.Printf("Error updating voucher status: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
