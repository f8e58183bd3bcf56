/**
 * @description
 * The onboarding flow machine: ID type selection, 11-digit BVN/NIN capture,
 * provider identity verification, OTP validation, and finally sub-account
 * creation, which moves the user into the Active super-state permanently.
 *
 * @notes
 * - Like every other flow the machine keys off its persisted state enum, but
 *   each onboarding state also pins the token depth it was prompted at. A
 *   replayed or resent input chain therefore lands on a depth mismatch and is
 *   rejected as a state inconsistency instead of re-invoking verification
 *   with stale data.
 */
package engine

import (
	"context"
	"fmt"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// Token depth at which each onboarding state expects its answer.
var onboardingDepth = map[domain.OnboardingState]int{
	domain.OnboardingAwaitingIDType:       1,
	domain.OnboardingAwaitingIDNumber:     2,
	domain.OnboardingAwaitingOTP:          3,
	domain.OnboardingAwaitingConfirmation: 4,
}

func (e *Engine) handleOnboarding(ctx context.Context, user *domain.User, phone string, in Input) Response {
	if in.Empty() {
		return e.startOnboarding(ctx, user, phone)
	}

	if user == nil || user.OnboardingState == "" || user.OnboardingState == domain.OnboardingCompleted {
		// Tokens were sent but there is no conversation to answer.
		return End(msgSessionExpired)
	}

	if onboardingDepth[user.OnboardingState] != in.Level {
		// Replayed or resent history: the persisted state is out of step with
		// the token chain. Defined outcome: reject, never re-derive.
		return End(msgSessionExpired)
	}

	switch user.OnboardingState {
	case domain.OnboardingAwaitingIDType:
		return e.onboardingIDType(ctx, user, in.Answer())
	case domain.OnboardingAwaitingIDNumber:
		return e.onboardingIDNumber(ctx, user, in.Answer())
	case domain.OnboardingAwaitingOTP:
		return e.onboardingOTP(ctx, user, in.Answer())
	case domain.OnboardingAwaitingConfirmation:
		return e.onboardingConfirmation(ctx, user, in.Answer())
	default:
		return End(msgSessionExpired)
	}
}

// startOnboarding creates (or resets) the record for a first contact and
// issues the opening prompt.
func (e *Engine) startOnboarding(ctx context.Context, user *domain.User, phone string) Response {
	if user == nil {
		fresh := &domain.User{
			Phone:           phone,
			OnboardingState: domain.OnboardingAwaitingIDType,
			LastActivityAt:  e.now(),
		}
		if err := e.users.Create(ctx, fresh); err != nil {
			return e.persistFailure(phone, err)
		}
	} else {
		if err := e.users.Update(ctx, phone, domain.Patch{
			domain.FieldIDType:          nil,
			domain.FieldIDNumber:        nil,
			domain.FieldIdentityID:      nil,
			domain.FieldOnboardingState: domain.OnboardingAwaitingIDType,
			domain.FieldLastActivityAt:  e.now(),
		}); err != nil {
			return e.persistFailure(phone, err)
		}
	}
	return Continue("Welcome to IyaPays.\nPlease choose your ID type:\n1. BVN\n2. NIN")
}

func (e *Engine) onboardingIDType(ctx context.Context, user *domain.User, answer string) Response {
	var idType domain.IDType
	switch answer {
	case "1":
		idType = domain.IDTypeBVN
	case "2":
		idType = domain.IDTypeNIN
	default:
		return End("Invalid choice. Please start over.")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldIDType:          idType,
		domain.FieldOnboardingState: domain.OnboardingAwaitingIDNumber,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue(fmt.Sprintf("Please enter your 11-digit %s:", idType))
}

func (e *Engine) onboardingIDNumber(ctx context.Context, user *domain.User, answer string) Response {
	if user.IDType == "" {
		return End(msgSessionExpired)
	}
	if !ValidIdentityNumber(answer) {
		return End(fmt.Sprintf("Invalid %s. It must be 11 digits.", user.IDType))
	}

	identityID, err := e.provider.VerifyIdentity(ctx, string(user.IDType), answer)
	if err != nil || identityID == "" {
		if err != nil {
			e.logger.Error("identity verification failed", "phone", user.Phone, "error", err)
		}
		return End(fmt.Sprintf("Your %s could not be verified. Please check and try again.", user.IDType))
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldIDNumber:        answer,
		domain.FieldIdentityID:      identityID,
		domain.FieldOnboardingState: domain.OnboardingAwaitingOTP,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("An OTP has been sent. Please enter it to continue:")
}

func (e *Engine) onboardingOTP(ctx context.Context, user *domain.User, answer string) Response {
	if user.IdentityID == "" {
		// Record advanced without its verification handle: unrecoverable.
		return End(msgSessionExpired)
	}

	identityID, err := e.provider.ValidateOTP(ctx, user.IdentityID, answer, string(user.IDType))
	if err != nil {
		e.logger.Error("otp validation failed", "phone", user.Phone, "error", err)
		return End("The OTP you entered is incorrect. Please dial the code to try again.")
	}
	if identityID == "" {
		identityID = user.IdentityID
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldIdentityID:      identityID,
		domain.FieldOnboardingState: domain.OnboardingAwaitingConfirmation,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("OTP Validated successfully! Press 1 to create your account.")
}

func (e *Engine) onboardingConfirmation(ctx context.Context, user *domain.User, answer string) Response {
	if user.IdentityID == "" {
		return End(msgSessionExpired)
	}
	if answer != "1" {
		return End("Account creation cancelled. Please dial the code to start again.")
	}

	account, err := e.provider.CreateSubAccount(ctx, user.IdentityID, user.Phone)
	if err != nil {
		e.logger.Error("sub-account creation failed", "phone", user.Phone, "error", err)
		return End("We could not create your account at this time. Please try again later.")
	}

	// The record gains its account fields and every flow-scratch group is
	// cleared on the way into the Active super-state.
	patch := domain.ClearAllScratch()
	patch[domain.FieldAccountNumber] = account.AccountNumber
	patch[domain.FieldAccountName] = account.AccountName
	patch[domain.FieldAccountBalance] = account.AccountBalance
	patch[domain.FieldExternalReference] = account.ExternalReference
	patch[domain.FieldOnboardingState] = domain.OnboardingCompleted
	patch[domain.FieldLastActivityAt] = e.now()
	if err := e.users.Update(ctx, user.Phone, patch); err != nil {
		e.logger.Error("account persist failed after provider success", "phone", user.Phone, "error", err)
		return End(msgServiceUnavailable)
	}

	e.publish(ctx, domain.EventAccountCreated, domain.AccountCreatedEvent{
		Phone:         user.Phone,
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		CreatedAt:     e.now().UTC(),
	})
	return End(fmt.Sprintf("Congratulations! Your account is ready.\nName: %s\nNumber: %s\nBalance: NGN %.2f",
		account.AccountName, account.AccountNumber, account.AccountBalance))
}
