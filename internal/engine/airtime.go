/**
 * @description
 * The airtime-purchase flow machine: pick a network, choose self or another
 * recipient, optionally collect and normalize the recipient's number, collect
 * an amount, then purchase through the provider's VAS rail.
 */
package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

func (e *Engine) handleAirtime(ctx context.Context, user *domain.User, in Input) Response {
	switch user.AirtimeState {
	case "":
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldAirtimeState: domain.AirtimeAwaitingNetwork,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue(networkMenu())

	case domain.AirtimeAwaitingNetwork:
		return e.airtimeNetwork(ctx, user, in.Answer())

	case domain.AirtimeAwaitingRecipientChoice:
		return e.airtimeRecipientChoice(ctx, user, in.Answer())

	case domain.AirtimeAwaitingRecipientNumber:
		return e.airtimeRecipientNumber(ctx, user, in.Answer())

	case domain.AirtimeAwaitingAmount:
		return e.airtimeAmount(ctx, user, in.Answer())

	default:
		return e.endAirtime(ctx, user, msgSessionExpired)
	}
}

func (e *Engine) airtimeNetwork(ctx context.Context, user *domain.User, answer string) Response {
	k, err := strconv.Atoi(answer)
	if err != nil || k < 1 || k > len(domain.Networks) {
		return Continue("Invalid network selection.\n" + networkMenu())
	}
	network := domain.Networks[k-1]

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldNetworkServiceID: network.ServiceCategoryID,
		domain.FieldAirtimeState:     domain.AirtimeAwaitingRecipientChoice,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Select recipient:\n1. Myself\n2. Others")
}

func (e *Engine) airtimeRecipientChoice(ctx context.Context, user *domain.User, answer string) Response {
	switch answer {
	case "1":
		// Self purchase: the caller's own number is already canonical.
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldAirtimeRecipient: user.Phone,
			domain.FieldAirtimeState:     domain.AirtimeAwaitingAmount,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue("Enter amount:")
	case "2":
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldAirtimeState: domain.AirtimeAwaitingRecipientNumber,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue("Enter recipient phone number:")
	default:
		return Continue("Invalid selection.\nSelect recipient:\n1. Myself\n2. Others")
	}
}

func (e *Engine) airtimeRecipientNumber(ctx context.Context, user *domain.User, answer string) Response {
	recipient, err := NormalizePhone(answer)
	if err != nil {
		return Continue("Invalid phone number. Enter recipient phone number:")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldAirtimeRecipient: recipient,
		domain.FieldAirtimeState:     domain.AirtimeAwaitingAmount,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Enter amount:")
}

func (e *Engine) airtimeAmount(ctx context.Context, user *domain.User, answer string) Response {
	amount, err := ValidateAmount(answer, e.cfg.AirtimeMinAmount, e.cfg.AirtimeMaxAmount)
	if err != nil {
		return Continue(amountPrompt(err, e.cfg.AirtimeMinAmount, e.cfg.AirtimeMaxAmount))
	}

	if user.AirtimeRecipient == "" || user.NetworkServiceID == "" {
		return e.endAirtime(ctx, user, msgSessionExpired)
	}

	err = e.provider.BuyAirtime(ctx, amount, user.AccountNumber, user.AirtimeRecipient, user.NetworkServiceID)
	if err != nil {
		e.logger.Error("airtime purchase failed", "phone", user.Phone, "error", err)
		return e.endAirtime(ctx, user, "Airtime purchase failed.")
	}

	e.publish(ctx, domain.EventAirtimeComplete, domain.AirtimeCompletedEvent{
		Phone:     user.Phone,
		Recipient: user.AirtimeRecipient,
		Network:   user.NetworkServiceID,
		Amount:    amount,
		BoughtAt:  e.now().UTC(),
	})
	msg := fmt.Sprintf("Airtime purchase of NGN %d for %s was successful.", amount, user.AirtimeRecipient)
	return e.endAirtime(ctx, user, msg)
}

func (e *Engine) endAirtime(ctx context.Context, user *domain.User, message string) Response {
	if err := e.users.Update(ctx, user.Phone, domain.ClearAirtimeScratch()); err != nil {
		e.logger.Error("airtime scratch wipe failed", "phone", user.Phone, "error", err)
	}
	return End(message)
}

func networkMenu() string {
	menu := "Select Network:"
	for i, n := range domain.Networks {
		menu += fmt.Sprintf("\n%d. %s", i+1, n.Name)
	}
	return menu
}
