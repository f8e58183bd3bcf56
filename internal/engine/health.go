/**
 * @description
 * The health-insurance enrollment flow machine: pick a state from the
 * paginated region list, enter LGA, NIN and plan tier, then full name, after
 * which an enrollment record is persisted keyed by phone number.
 *
 * @notes
 * - Enrollment is an explicit allow-list of one region. Selecting any other
 *   state terminates with "not available" rather than silently accepting.
 */
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

const statePickerTitle = "Select your state:"

func (e *Engine) handleHealth(ctx context.Context, user *domain.User, in Input) Response {
	switch user.HealthState {
	case "":
		text, page := RenderPage(statePickerTitle, domain.Regions, 1, PageSize)
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldHealthState:     domain.HealthAwaitingStateSelection,
			domain.FieldStatePickerPage: page,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
		return Continue(text)

	case domain.HealthAwaitingStateSelection:
		return e.healthStateSelection(ctx, user, in.Answer())

	case domain.HealthAwaitingLGA:
		return e.healthLGA(ctx, user, in.Answer())

	case domain.HealthAwaitingNIN:
		return e.healthNIN(ctx, user, in.Answer())

	case domain.HealthAwaitingTier:
		return e.healthTier(ctx, user, in.Answer())

	case domain.HealthAwaitingFullName:
		return e.healthFullName(ctx, user, in.Answer())

	default:
		return e.endHealth(ctx, user, msgSessionExpired)
	}
}

func (e *Engine) healthStateSelection(ctx context.Context, user *domain.User, answer string) Response {
	page := user.StatePickerPage
	if page < 1 {
		page = 1
	}

	switch answer {
	case NextToken:
		return e.showStatePage(ctx, user, page+1)
	case PrevToken:
		return e.showStatePage(ctx, user, page-1)
	}

	idx, ok := ResolveSelection(answer, page, PageSize, len(domain.Regions))
	if !ok {
		text, _ := RenderPage(statePickerTitle, domain.Regions, page, PageSize)
		return Continue("Invalid selection.\n" + text)
	}
	region := domain.Regions[idx]

	if region != e.cfg.EnrollableRegion {
		return e.endHealth(ctx, user,
			fmt.Sprintf("Health insurance enrollment is not yet available in %s.", region))
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldHealthState: domain.HealthAwaitingLGA,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Enter your Local Government Area:")
}

func (e *Engine) healthLGA(ctx context.Context, user *domain.User, answer string) Response {
	lga := strings.TrimSpace(answer)
	if lga == "" {
		return Continue("LGA cannot be empty. Enter your Local Government Area:")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldHealthLGA:   lga,
		domain.FieldHealthState: domain.HealthAwaitingNIN,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Enter your 11-digit NIN:")
}

func (e *Engine) healthNIN(ctx context.Context, user *domain.User, answer string) Response {
	if !ValidIdentityNumber(answer) {
		return Continue("Invalid NIN. It must be 11 digits. Enter your NIN:")
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldHealthNIN:   answer,
		domain.FieldHealthState: domain.HealthAwaitingTier,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue(tierMenu())
}

func (e *Engine) healthTier(ctx context.Context, user *domain.User, answer string) Response {
	k, err := strconv.Atoi(answer)
	if err != nil || k < 1 || k > len(domain.HealthTiers) {
		return Continue("Invalid selection.\n" + tierMenu())
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{
		domain.FieldHealthTier:  domain.HealthTiers[k-1],
		domain.FieldHealthState: domain.HealthAwaitingFullName,
	}); err != nil {
		return e.persistFailure(user.Phone, err)
	}
	return Continue("Enter your full name:")
}

func (e *Engine) healthFullName(ctx context.Context, user *domain.User, answer string) Response {
	fullName := strings.TrimSpace(answer)
	if fullName == "" {
		return Continue("Name cannot be empty. Enter your full name:")
	}

	if user.HealthLGA == "" || user.HealthNIN == "" || user.HealthTier == "" {
		return e.endHealth(ctx, user, msgSessionExpired)
	}

	enrollment := &domain.HealthEnrollment{
		Phone:     user.Phone,
		Region:    e.cfg.EnrollableRegion,
		LGA:       user.HealthLGA,
		NIN:       user.HealthNIN,
		Tier:      user.HealthTier,
		FullName:  fullName,
		CreatedAt: e.now().UTC(),
	}
	if err := e.enrollments.Create(ctx, enrollment); err != nil {
		e.logger.Error("enrollment persist failed", "phone", user.Phone, "error", err)
		return e.endHealth(ctx, user, msgServiceUnavailable)
	}

	return e.endHealth(ctx, user,
		"Enrollment received. You will be contacted to complete your registration.")
}

// showStatePage persists the clamped page and re-renders the state list.
func (e *Engine) showStatePage(ctx context.Context, user *domain.User, page int) Response {
	text, clamped := RenderPage(statePickerTitle, domain.Regions, page, PageSize)
	if clamped != user.StatePickerPage {
		if err := e.users.Update(ctx, user.Phone, domain.Patch{
			domain.FieldStatePickerPage: clamped,
		}); err != nil {
			return e.persistFailure(user.Phone, err)
		}
	}
	return Continue(text)
}

func (e *Engine) endHealth(ctx context.Context, user *domain.User, message string) Response {
	if err := e.users.Update(ctx, user.Phone, domain.ClearHealthScratch()); err != nil {
		e.logger.Error("health scratch wipe failed", "phone", user.Phone, "error", err)
	}
	return End(message)
}

func tierMenu() string {
	menu := "Select plan type:"
	for i, t := range domain.HealthTiers {
		menu += fmt.Sprintf("\n%d. %s", i+1, t)
	}
	return menu
}
