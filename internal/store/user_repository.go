/**
 * @description
 * This file implements the data access layer for the per-phone user records.
 * It provides a clean interface for the engine to read a record and apply
 * partial patches against the `users` table.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the User model.
 *
 * @notes
 * - Update implements patch semantics: only the mentioned columns change, and
 *   a nil value writes NULL. Column names are whitelisted so a patch can
 *   never smuggle arbitrary SQL.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// patchableColumns is the set of columns Update will accept.
var patchableColumns = map[string]bool{
	domain.FieldIDType:            true,
	domain.FieldIDNumber:          true,
	domain.FieldIdentityID:        true,
	domain.FieldOnboardingState:   true,
	domain.FieldAccountNumber:     true,
	domain.FieldAccountName:       true,
	domain.FieldAccountBalance:    true,
	domain.FieldExternalReference: true,
	domain.FieldTransferState:     true,
	domain.FieldRecipientAccount:  true,
	domain.FieldRecipientBankCode: true,
	domain.FieldTransferSessionID: true,
	domain.FieldBankListPage:      true,
	domain.FieldAirtimeState:      true,
	domain.FieldNetworkServiceID:  true,
	domain.FieldAirtimeRecipient:  true,
	domain.FieldVoucherState:      true,
	domain.FieldSavingsState:      true,
	domain.FieldFixPlanName:       true,
	domain.FieldFixDuration:       true,
	domain.FieldFixAmount:         true,
	domain.FieldHealthState:       true,
	domain.FieldHealthLGA:         true,
	domain.FieldHealthNIN:         true,
	domain.FieldHealthTier:        true,
	domain.FieldStatePickerPage:   true,
	domain.FieldLastActivityAt:    true,
}

// PostgresUserRepository is the PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new instance of PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetByPhone retrieves a user record by phone number.
func (r *PostgresUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `
        SELECT phone,
               COALESCE(id_type, ''), COALESCE(id_number, ''), COALESCE(identity_id, ''),
               COALESCE(onboarding_state, ''),
               COALESCE(account_number, ''), COALESCE(account_name, ''),
               COALESCE(account_balance, 0), COALESCE(external_reference, ''),
               COALESCE(transfer_state, ''), COALESCE(recipient_account, ''),
               COALESCE(recipient_bank_code, ''), COALESCE(transfer_session_id, ''),
               COALESCE(bank_list_page, 0),
               COALESCE(airtime_state, ''), COALESCE(network_service_id, ''),
               COALESCE(airtime_recipient, ''),
               COALESCE(voucher_state, ''),
               COALESCE(savings_state, ''), COALESCE(fix_plan_name, ''),
               COALESCE(fix_duration, ''), COALESCE(fix_amount, 0),
               COALESCE(health_state, ''), COALESCE(health_lga, ''),
               COALESCE(health_nin, ''), COALESCE(health_tier, ''),
               COALESCE(state_picker_page, 0),
               COALESCE(last_activity_at, 'epoch'::timestamptz)
        FROM users WHERE phone = $1
    `
	var u domain.User
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&u.Phone,
		&u.IDType, &u.IDNumber, &u.IdentityID,
		&u.OnboardingState,
		&u.AccountNumber, &u.AccountName,
		&u.AccountBalance, &u.ExternalReference,
		&u.TransferState, &u.RecipientAccount,
		&u.RecipientBankCode, &u.TransferSessionID,
		&u.BankListPage,
		&u.AirtimeState, &u.NetworkServiceID,
		&u.AirtimeRecipient,
		&u.VoucherState,
		&u.SavingsState, &u.FixPlanName,
		&u.FixDuration, &u.FixAmount,
		&u.HealthState, &u.HealthLGA,
		&u.HealthNIN, &u.HealthTier,
		&u.StatePickerPage,
		&u.LastActivityAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Printf("Error fetching user %s: %v", phone, err)
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (phone, onboarding_state, last_activity_at)
        VALUES ($1, NULLIF($2, ''), $3)
    `
	_, err := r.db.Exec(ctx, query, user.Phone, string(user.OnboardingState), user.LastActivityAt)
	if err != nil {
		log.Printf("Error creating user %s: %v", user.Phone, err)
		return err
	}
	return nil
}

// Update applies a partial patch to a user record. Unmentioned columns are
// untouched; nil values clear the column.
func (r *PostgresUserRepository) Update(ctx context.Context, phone string, patch domain.Patch) error {
	if len(patch) == 0 {
		return nil
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	i := 1
	for col, val := range patch {
		if !patchableColumns[col] {
			return fmt.Errorf("refusing to patch unknown column %q", col)
		}
		if val == nil {
			sets = append(sets, fmt.Sprintf("%s = NULL", col))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}
	args = append(args, phone)

	query := fmt.Sprintf("UPDATE users SET %s WHERE phone = $%d", strings.Join(sets, ", "), i)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Printf("Error updating user %s: %v", phone, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearStaleScratch wipes the flow scratch of every record idle since before
// olderThan and returns the number of records touched. Used by the sweeper.
func (r *PostgresUserRepository) ClearStaleScratch(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
        UPDATE users SET
            transfer_state = NULL, recipient_account = NULL,
            recipient_bank_code = NULL, transfer_session_id = NULL,
            bank_list_page = NULL,
            airtime_state = NULL, network_service_id = NULL,
            airtime_recipient = NULL,
            voucher_state = NULL,
            savings_state = NULL, fix_plan_name = NULL,
            fix_duration = NULL, fix_amount = NULL,
            health_state = NULL, health_lga = NULL,
            health_nin = NULL, health_tier = NULL, state_picker_page = NULL
        WHERE last_activity_at < $1
          AND (transfer_state IS NOT NULL OR airtime_state IS NOT NULL
               OR voucher_state IS NOT NULL OR savings_state IS NOT NULL
               OR health_state IS NOT NULL)
    `
	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		log.Printf("Error clearing stale scratch: %v", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}
