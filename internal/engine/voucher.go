/**
 * @description
 * The voucher redemption flow machine. A single input step collects the
 * token; redemption then runs three sub-steps against external systems:
 * a self name-enquiry on the user's account, a transfer from the master
 * settlement account for the token's face value, and only after the funds
 * have moved, retiring the token.
 *
 * @notes
 * - The token must never be flipped inactive before the transfer succeeds;
 *   a failed funds call leaves it active and redeemable again.
 */
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iyapays/ussd-gateway/internal/domain"
	"github.com/iyapays/ussd-gateway/internal/store"
)

func (e *Engine) handleVoucher(ctx context.Context, user *domain.User, in Input) Response {
	switch user.VoucherState {
	case "":
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldVoucherState: domain.VoucherAwaitingCode,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue("Enter your IyaVoucher code:")

	case domain.VoucherAwaitingCode:
		return e.redeemVoucher(ctx, user, in.Answer())

	default:
		return e.endVoucher(ctx, user, msgSessionExpired)
	}
}

func (e *Engine) redeemVoucher(ctx context.Context, user *domain.User, code string) Response {
	token, err := e.vouchers.GetByValue(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return e.endVoucher(ctx, user, "Invalid or already used voucher code.")
		}
		e.logger.Error("voucher lookup failed", "phone", user.Phone, "error", err)
		return e.endVoucher(ctx, user, msgServiceUnavailable)
	}
	if !token.Redeemable() {
		return e.endVoucher(ctx, user, "Invalid or already used voucher code.")
	}

	// Resolve the user's own account at the settlement bank to obtain the
	// provider session the loading transfer must reference.
	enquiry, err := e.provider.NameEnquiry(ctx, e.cfg.SettlementBankCode, user.AccountNumber)
	if err != nil || enquiry.SessionID == "" {
		if err != nil {
			e.logger.Error("voucher self-enquiry failed", "phone", user.Phone, "error", err)
		}
		return e.endVoucher(ctx, user, "Could not validate your account for loading. Please try again.")
	}

	err = e.provider.Transfer(ctx, enquiry.SessionID, e.cfg.MasterSettlementAccount,
		e.cfg.SettlementBankCode, user.AccountNumber, token.FaceValue)
	if err != nil {
		e.logger.Error("voucher funds transfer failed", "phone", user.Phone, "error", err)
		return e.endVoucher(ctx, user, "Voucher loading failed. Please try again later.")
	}

	// Funds have moved; the token is spent even if retiring it fails, so a
	// status-write failure is logged for reconciliation rather than shown as
	// a user-facing failure.
	if err := e.vouchers.SetStatus(ctx, code, domain.VoucherStatusInactive); err != nil {
		e.logger.Error("voucher retire failed after successful transfer", "phone", user.Phone, "voucher", code, "error", err)
	}

	e.publish(ctx, domain.EventVoucherRedeemed, domain.VoucherRedeemedEvent{
		Phone:      user.Phone,
		Voucher:    code,
		FaceValue:  token.FaceValue,
		RedeemedAt: e.now().UTC(),
	})
	return e.endVoucher(ctx, user, fmt.Sprintf("NGN %d Loaded successfully.", token.FaceValue))
}

func (e *Engine) endVoucher(ctx context.Context, user *domain.User, message string) Response {
	if err := e.users.Update(ctx, user.Phone, domain.ClearVoucherScratch()); err != nil {
		e.logger.Error("voucher scratch wipe failed", "phone", user.Phone, "error", err)
	}
	return End(message)
}
