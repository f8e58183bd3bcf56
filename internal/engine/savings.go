/**
 * @description
 * The fixed-savings flow machine: name the plan, pick a tenor from the closed
 * duration set, enter an amount at or above the configured floor, then open a
 * fixed virtual account with the provider and persist the plan durably.
 */
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

func (e *Engine) handleSavings(ctx context.Context, user *domain.User, in Input) Response {
	switch user.SavingsState {
	case "":
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldSavingsState: domain.SavingsAwaitingPlanName,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue("Enter a name for your savings plan:")

	case domain.SavingsAwaitingPlanName:
		return e.savingsPlanName(ctx, user, in.Answer())

	case domain.SavingsAwaitingDuration:
		return e.savingsDuration(ctx, user, in.Answer())

	case domain.SavingsAwaitingAmount:
		return e.savingsAmount(ctx, user, in.Answer())

	default:
		return e.endSavings(ctx, user, msgSessionExpired)
	}
}

func (e *Engine) savingsPlanName(ctx context.Context, user *domain.User, answer string) Response {
	name := strings.TrimSpace(answer)
	if name == "" {
		return Continue("Plan name cannot be empty. Enter a name for your savings plan:")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldFixPlanName:  name,
		domain.FieldSavingsState: domain.SavingsAwaitingDuration,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue(durationMenu())
}

func (e *Engine) savingsDuration(ctx context.Context, user *domain.User, answer string) Response {
	k, err := strconv.Atoi(answer)
	if err != nil || k < 1 || k > len(domain.SavingsDurations) {
		return Continue("Invalid selection.\n" + durationMenu())
	}
	duration := domain.SavingsDurations[k-1]

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldFixDuration:  duration,
		domain.FieldSavingsState: domain.SavingsAwaitingAmount,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue(fmt.Sprintf("Enter amount to save (minimum NGN %d):", e.cfg.SavingsMinAmount))
}

func (e *Engine) savingsAmount(ctx context.Context, user *domain.User, answer string) Response {
	amount, err := ValidateAmount(answer, e.cfg.SavingsMinAmount, e.cfg.TransferMaxAmount)
	if err != nil {
		return Continue(amountPrompt(err, e.cfg.SavingsMinAmount, e.cfg.TransferMaxAmount))
	}

	if user.FixPlanName == "" || user.FixDuration == "" {
		return e.endSavings(ctx, user, msgSessionExpired)
	}

	if err := e.provider.CreateFixedAccount(ctx, user.AccountNumber, amount); err != nil {
		e.logger.Error("fixed account creation failed", "phone", user.Phone, "error", err)
		return e.endSavings(ctx, user, "Could not create your savings plan. Please try again later.")
	}

	plan := &domain.SavingsPlan{
		Phone:     user.Phone,
		PlanName:  user.FixPlanName,
		Duration:  user.FixDuration,
		Amount:    amount,
		CreatedAt: e.now().UTC(),
	}
	if err := e.plans.Create(ctx, plan); err != nil {
		// The provider side succeeded; record the mismatch for reconciliation.
		e.logger.Error("savings plan persist failed after provider success", "phone", user.Phone, "error", err)
	}

	e.publish(ctx, domain.EventSavingsCreated, domain.SavingsCreatedEvent{
		Phone:     plan.Phone,
		PlanName:  plan.PlanName,
		Duration:  plan.Duration,
		Amount:    plan.Amount,
		CreatedAt: plan.CreatedAt,
	})
	msg := fmt.Sprintf("Your %s plan of NGN %d for %s is ready. Fund your account to activate it.",
		plan.PlanName, plan.Amount, plan.Duration)
	return e.endSavings(ctx, user, msg)
}

func (e *Engine) endSavings(ctx context.Context, user *domain.User, message string) Response {
	if err := e.users.Update(ctx, user.Phone, domain.ClearSavingsScratch()); err != nil {
		e.logger.Error("savings scratch wipe failed", "phone", user.Phone, "error", err)
	}
	return End(message)
}

func durationMenu() string {
	menu := "Select duration:"
	for i, d := range domain.SavingsDurations {
		menu += fmt.Sprintf("\n%d. %s", i+1, d)
	}
	return menu
}
