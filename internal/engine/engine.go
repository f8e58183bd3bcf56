/**
 * @description
 * This file contains the flow state machine engine, the heart of the USSD
 * gateway. Given a persisted user record and the cumulative input of the
 * conversation, it determines the active flow, advances it exactly one step,
 * performs at most one provider call, and emits the next prompt or a terminal
 * result.
 *
 * Key features:
 * - Two super-states: Onboarding (no account yet) and Active.
 * - Session lifecycle policy: idle-timeout detection and full scratch wipe on
 *   every menu re-entry, so abandoned flows never leak into new selections.
 * - Dispatch on the first token to one of the flow machines; each machine
 *   keys off its persisted state enum and reads the last token as the answer
 *   to the current prompt.
 *
 * @notes
 * - The engine is deliberately synchronous: one request, one decision, one
 *   write. Cross-request races are excluded by the per-phone lock acquired in
 *   the HTTP handler, not here.
 */
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iyapays/ussd-gateway/internal/domain"
	"github.com/iyapays/ussd-gateway/internal/store"
)

// Exchange to which domain events are published.
const EventsExchange = "ussd_events"

// Menu choice tokens recognized by the active-user router.
const (
	choiceAddFunds = "1"
	choiceTransfer = "2"
	choiceAirtime  = "3"
	choiceVoucher  = "4"
	choicePayBills = "5"
	choiceSavings  = "6"
	choiceHealth   = "7"
	choiceAccount  = "8"
)

// Terminal copy reused across flows.
const (
	msgServiceUnavailable = "Service is temporarily unavailable. Please try again later."
	msgSessionExpired     = "Your session has expired. Please dial the code to start again."
	msgComingSoon         = "Thank you for using IyaPays. This feature is coming soon."
	msgNotSupported       = "That option is not supported."
)

// Provider is the payment/identity gateway consumed by the flow machines.
// Every call is blocking, single-attempt, and context-bounded; an error means
// the operation did not observably succeed and is surfaced to the user as a
// definitive failure.
type Provider interface {
	VerifyIdentity(ctx context.Context, idType, idNumber string) (identityID string, err error)
	ValidateOTP(ctx context.Context, identityID, otp, idType string) (identityID2 string, err error)
	CreateSubAccount(ctx context.Context, identityID, phone string) (*domain.SubAccountData, error)
	NameEnquiry(ctx context.Context, bankCode, accountNumber string) (*domain.NameEnquiryData, error)
	Transfer(ctx context.Context, sessionID, debitAccount, beneficiaryBankCode, beneficiaryAccount string, amount int64) error
	BuyAirtime(ctx context.Context, amount int64, debitAccount, recipientPhone, serviceCategoryID string) error
	CreateFixedAccount(ctx context.Context, accountNumber string, amount int64) error
}

// Publisher emits domain events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Config carries the engine's policy constants.
type Config struct {
	SessionTimeout time.Duration

	TransferMinAmount int64
	TransferMaxAmount int64
	AirtimeMinAmount  int64
	AirtimeMaxAmount  int64
	SavingsMinAmount  int64

	// Settlement details used by voucher redemption and fixed savings.
	SettlementBankCode      string
	MasterSettlementAccount string

	// The only region currently accepted for health enrollment.
	EnrollableRegion string
}

// Request is one inbound USSD callback, already decoded from form fields.
type Request struct {
	SessionID string
	Phone     string
	Text      string
}

// Engine drives the conversation flows.
type Engine struct {
	users       store.UserRepository
	vouchers    store.VoucherRepository
	enrollments store.EnrollmentRepository
	plans       store.SavingsPlanRepository
	provider    Provider
	publisher   Publisher
	logger      *slog.Logger
	cfg         Config
	now         func() time.Time
}

// New creates an Engine with its collaborators.
func New(
	users store.UserRepository,
	vouchers store.VoucherRepository,
	enrollments store.EnrollmentRepository,
	plans store.SavingsPlanRepository,
	provider Provider,
	publisher Publisher,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	return &Engine{
		users:       users,
		vouchers:    vouchers,
		enrollments: enrollments,
		plans:       plans,
		provider:    provider,
		publisher:   publisher,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Handle advances the conversation by exactly one step and returns the
// response to send back through the aggregator.
func (e *Engine) Handle(ctx context.Context, req Request) Response {
	phone := req.Phone
	if normalized, err := NormalizePhone(phone); err == nil {
		phone = normalized
	}

	in := ParseInput(req.Text)

	user, err := e.users.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		e.logger.Error("user lookup failed", "phone", phone, "error", err)
		return End(msgServiceUnavailable)
	}

	if user == nil || !user.HasAccount() {
		return e.handleOnboarding(ctx, user, phone, in)
	}

	return e.handleActive(ctx, user, in)
}

// handleActive runs the session lifecycle policy and dispatches an
// account-holding user to the selected flow machine.
func (e *Engine) handleActive(ctx context.Context, user *domain.User, in Input) Response {
	now := e.now()

	if !user.LastActivityAt.IsZero() && now.Sub(user.LastActivityAt) > e.cfg.SessionTimeout && !in.Empty() {
		// Stale conversation: wipe everything and refuse to process the
		// current input, which was an answer to a prompt that no longer exists.
		patch := domain.ClearAllScratch()
		patch[domain.FieldLastActivityAt] = now
		if err := e.users.Update(ctx, user.Phone, patch); err != nil {
			e.logger.Error("timeout scratch wipe failed", "phone", user.Phone, "error", err)
			return End(msgServiceUnavailable)
		}
		return End(msgSessionExpired)
	}

	if err := e.users.Update(ctx, user.Phone, domain.Patch{domain.FieldLastActivityAt: now}); err != nil {
		e.logger.Error("activity stamp failed", "phone", user.Phone, "error", err)
		return End(msgServiceUnavailable)
	}
	user.LastActivityAt = now

	if in.Empty() {
		if err := e.users.Update(ctx, user.Phone, domain.ClearAllScratch()); err != nil {
			e.logger.Error("menu scratch wipe failed", "phone", user.Phone, "error", err)
			return End(msgServiceUnavailable)
		}
		return e.mainMenu(user)
	}

	switch in.Choice() {
	case choiceTransfer:
		return e.handleTransfer(ctx, user, in)
	case choiceAirtime:
		return e.handleAirtime(ctx, user, in)
	case choiceVoucher:
		return e.handleVoucher(ctx, user, in)
	case choiceSavings:
		return e.handleSavings(ctx, user, in)
	case choiceHealth:
		return e.handleHealth(ctx, user, in)
	case choiceAccount:
		return e.handleAccount(user)
	case choiceAddFunds, choicePayBills:
		return End(msgComingSoon)
	default:
		return End(msgNotSupported)
	}
}

// mainMenu renders the top-level menu for an account-holding user.
func (e *Engine) mainMenu(user *domain.User) Response {
	name := user.AccountName
	if name == "" {
		name = user.Phone
	}
	return Continue("Welcome back, " + name + ".\n" +
		"1. Add Funds\n" +
		"2. Transfer Funds\n" +
		"3. Buy Airtime\n" +
		"4. IyaVoucher\n" +
		"5. Pay Bills\n" +
		"6. Savings\n" +
		"7. Health Insurance\n" +
		"8. My Account")
}

// publish emits a domain event without letting a broker failure change the
// user-visible outcome.
func (e *Engine) publish(ctx context.Context, routingKey string, body interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		e.logger.Warn("event publish failed", "routing_key", routingKey, "error", err)
	}
}
