/**
 * @description
 * The fund-transfer flow machine: collect a 10-digit beneficiary account,
 * pick a bank from the paginated list, resolve the beneficiary by name
 * enquiry, collect an amount, then execute the NIP transfer.
 *
 * @notes
 * - The provider's name-enquiry sessionId must be echoed verbatim into the
 *   transfer call; losing it is a terminal failure.
 * - Both terminal outcomes clear the whole transfer scratch group so a stale
 *   provider session can never be replayed by a retry.
 */
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

const bankListTitle = "Select beneficiary bank:"

func (e *Engine) handleTransfer(ctx context.Context, user *domain.User, in Input) Response {
	switch user.TransferState {
	case "":
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldTransferState: domain.TransferAwaitingRecipientAccount,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue("Enter beneficiary account number:")

	case domain.TransferAwaitingRecipientAccount:
		return e.transferRecipientAccount(ctx, user, in.Answer())

	case domain.TransferAwaitingBankSelection:
		return e.transferBankSelection(ctx, user, in.Answer())

	case domain.TransferAwaitingAmount:
		return e.transferAmount(ctx, user, in.Answer())

	default:
		return e.endTransfer(ctx, user, msgSessionExpired)
	}
}

func (e *Engine) transferRecipientAccount(ctx context.Context, user *domain.User, answer string) Response {
	if !ValidAccountNumber(answer) {
		// Permissive policy: malformed input re-prompts instead of killing
		// the conversation.
		return Continue("Invalid account number. Enter the 10-digit beneficiary account number:")
	}

	text, page := RenderPage(bankListTitle, bankLabels(), 1, PageSize)
	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldRecipientAccount: answer,
		domain.FieldBankListPage:     page,
		domain.FieldTransferState:    domain.TransferAwaitingBankSelection,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue(text)
}

func (e *Engine) transferBankSelection(ctx context.Context, user *domain.User, answer string) Response {
	page := user.BankListPage
	if page < 1 {
		page = 1
	}
	total := len(domain.Banks)

	switch answer {
	case NextToken:
		return e.showBankPage(ctx, user, page+1)
	case PrevToken:
		return e.showBankPage(ctx, user, page-1)
	}

	idx, ok := ResolveSelection(answer, page, PageSize, total)
	if !ok {
		text, _ := RenderPage(bankListTitle, bankLabels(), page, PageSize)
		return Continue("Invalid selection.\n" + text)
	}
	bank := domain.Banks[idx]

	if user.RecipientAccount == "" {
		return e.endTransfer(ctx, user, msgSessionExpired)
	}

	enquiry, err := e.provider.NameEnquiry(ctx, bank.Code, user.RecipientAccount)
	if err != nil || enquiry.AccountName == "" || enquiry.SessionID == "" {
		if err != nil {
			e.logger.Error("name enquiry failed", "phone", user.Phone, "bank", bank.Code, "error", err)
		}
		return e.endTransfer(ctx, user, "Could not verify account details. Please try again.")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldRecipientBankCode: bank.Code,
		domain.FieldTransferSessionID: enquiry.SessionID,
		domain.FieldTransferState:     domain.TransferAwaitingAmount,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Beneficiary: " + enquiry.AccountName + "\nEnter amount:")
}

func (e *Engine) transferAmount(ctx context.Context, user *domain.User, answer string) Response {
	amount, err := ValidateAmount(answer, e.cfg.TransferMinAmount, e.cfg.TransferMaxAmount)
	if err != nil {
		return Continue(amountPrompt(err, e.cfg.TransferMinAmount, e.cfg.TransferMaxAmount))
	}

	if user.TransferSessionID == "" || user.RecipientBankCode == "" || user.RecipientAccount == "" {
		return e.endTransfer(ctx, user, msgSessionExpired)
	}

	err = e.provider.Transfer(ctx, user.TransferSessionID, user.AccountNumber,
		user.RecipientBankCode, user.RecipientAccount, amount)
	if err != nil {
		e.logger.Error("transfer failed", "phone", user.Phone, "error", err)
		return e.endTransfer(ctx, user, "Transaction Failed. Please try again.")
	}

	e.publish(ctx, domain.EventTransferComplete, domain.TransferCompletedEvent{
		Phone:              user.Phone,
		DebitAccount:       user.AccountNumber,
		BeneficiaryAccount: user.RecipientAccount,
		BeneficiaryBank:    user.RecipientBankCode,
		Amount:             amount,
		CompletedAt:        e.now().UTC(),
	})
	return e.endTransfer(ctx, user, "Transaction Successful.")
}

// showBankPage persists the clamped page and re-renders the bank list.
func (e *Engine) showBankPage(ctx context.Context, user *domain.User, page int) Response {
	text, clamped := RenderPage(bankListTitle, bankLabels(), page, PageSize)
	if clamped != user.BankListPage {
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldBankListPage: clamped,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
	}
	return Continue(text)
}

// endTransfer terminates the flow, wiping all transfer scratch first.
func (e *Engine) endTransfer(ctx context.Context, user *domain.User, message string) Response {
	if err := e.users.Update(ctx, user.Phone, domain.ClearTransferScratch()); err != nil {
		e.logger.Error("transfer scratch wipe failed", "phone", user.Phone, "error", err)
	}
	return End(message)
}

// persistFailure is the shared terminal path for a record-store write error.
// Nothing is partially persisted: the step that failed is simply not recorded
// and the user can retry the conversation.
func (e *Engine) persistFailure(phone string, err error) Response {
	e.logger.Error("record store write failed", "phone", phone, "error", err)
	return End(msgServiceUnavailable)
}

func bankLabels() []string {
	labels := make([]string, len(domain.Banks))
	for i, b := range domain.Banks {
		labels[i] = b.Name
	}
	return labels
}

// amountPrompt builds a re-prompt that tells the user exactly why the amount
// was rejected.
func amountPrompt(err error, min, max int64) string {
	switch {
	case errors.Is(err, ErrAmountBelowMin):
		return fmt.Sprintf("Amount is below the minimum of NGN %d. Enter amount:", min)
	case errors.Is(err, ErrAmountAboveMax):
		return fmt.Sprintf("Amount is above the maximum of NGN %d. Enter amount:", max)
	default:
		return "Amount must be a whole number. Enter amount:"
	}
}
