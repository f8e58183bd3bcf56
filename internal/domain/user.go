/**
 * @description
 * This file defines the core domain model for the USSD gateway: the per-phone
 * user record that carries onboarding identity, the settled account details,
 * and the scratch state of whichever conversation flow is in progress.
 *
 * @notes
 * - The record is the only unit of cross-request continuity; the USSD channel
 *   itself gives no session affinity, so every field a flow needs between two
 *   requests must live here.
 * - Scratch fields are NULL at rest. A flow that ends (success, failure, or
 *   return to menu) must clear its whole group, not just the state enum.
 */
package domain

import "time"

// IDType is the identity document used during onboarding.
type IDType string

const (
	IDTypeBVN IDType = "BVN"
	IDTypeNIN IDType = "NIN"
)

// OnboardingState tracks progress through account opening. The onboarding
// machine keys off this persisted enum like every other flow; the cumulative
// input length is never trusted on its own.
type OnboardingState string

const (
	OnboardingAwaitingIDType       OnboardingState = "AWAITING_ID_TYPE"
	OnboardingAwaitingIDNumber     OnboardingState = "AWAITING_ID_NUMBER"
	OnboardingAwaitingOTP          OnboardingState = "AWAITING_OTP"
	OnboardingAwaitingConfirmation OnboardingState = "AWAITING_CONFIRMATION"
	OnboardingCompleted            OnboardingState = "COMPLETED"
)

// TransferState tracks progress through the fund-transfer flow.
type TransferState string

const (
	TransferAwaitingRecipientAccount TransferState = "AWAITING_RECIPIENT_ACCOUNT"
	TransferAwaitingBankSelection    TransferState = "AWAITING_BANK_SELECTION"
	TransferAwaitingAmount           TransferState = "AWAITING_AMOUNT"
)

// AirtimeState tracks progress through the airtime-purchase flow.
type AirtimeState string

const (
	AirtimeAwaitingNetwork         AirtimeState = "AWAITING_NETWORK"
	AirtimeAwaitingRecipientChoice AirtimeState = "AWAITING_RECIPIENT_CHOICE"
	AirtimeAwaitingRecipientNumber AirtimeState = "AWAITING_RECIPIENT_NUMBER"
	AirtimeAwaitingAmount          AirtimeState = "AWAITING_AMOUNT"
)

// VoucherState tracks the single-step voucher redemption flow.
type VoucherState string

const (
	VoucherAwaitingCode VoucherState = "AWAITING_VOUCHER_CODE"
)

// SavingsState tracks progress through fixed-savings plan creation.
type SavingsState string

const (
	SavingsAwaitingPlanName SavingsState = "AWAITING_PLAN_NAME"
	SavingsAwaitingDuration SavingsState = "AWAITING_DURATION"
	SavingsAwaitingAmount   SavingsState = "AWAITING_AMOUNT"
)

// HealthState tracks progress through health-insurance enrollment.
type HealthState string

const (
	HealthAwaitingStateSelection HealthState = "AWAITING_STATE_SELECTION"
	HealthAwaitingLGA            HealthState = "AWAITING_LGA"
	HealthAwaitingNIN            HealthState = "AWAITING_NIN"
	HealthAwaitingTier           HealthState = "AWAITING_TIER"
	HealthAwaitingFullName       HealthState = "AWAITING_FULL_NAME"
)

// User is one phone number's persisted record. Empty strings and zero values
// stand for NULL columns; the store layer maps them accordingly.
type User struct {
	Phone string `json:"phone"`

	// Onboarding / identity.
	IDType          IDType          `json:"id_type"`
	IDNumber        string          `json:"id_number"`
	IdentityID      string          `json:"identity_id"`
	OnboardingState OnboardingState `json:"onboarding_state"`

	// Financial account, present only once onboarding completes.
	AccountNumber     string  `json:"account_number"`
	AccountName       string  `json:"account_name"`
	AccountBalance    float64 `json:"account_balance"`
	ExternalReference string  `json:"external_reference"`

	// Transfer scratch.
	TransferState     TransferState `json:"transfer_state"`
	RecipientAccount  string        `json:"recipient_account"`
	RecipientBankCode string        `json:"recipient_bank_code"`
	TransferSessionID string        `json:"transfer_session_id"`
	BankListPage      int           `json:"bank_list_page"`

	// Airtime scratch.
	AirtimeState     AirtimeState `json:"airtime_state"`
	NetworkServiceID string       `json:"network_service_id"`
	AirtimeRecipient string       `json:"airtime_recipient"`

	// Voucher scratch.
	VoucherState VoucherState `json:"voucher_state"`

	// Fixed-savings scratch.
	SavingsState SavingsState `json:"savings_state"`
	FixPlanName  string       `json:"fix_plan_name"`
	FixDuration  string       `json:"fix_duration"`
	FixAmount    int64        `json:"fix_amount"`

	// Health-enrollment scratch.
	HealthState     HealthState `json:"health_state"`
	HealthLGA       string      `json:"health_lga"`
	HealthNIN       string      `json:"health_nin"`
	HealthTier      string      `json:"health_tier"`
	StatePickerPage int         `json:"state_picker_page"`

	LastActivityAt time.Time `json:"last_activity_at"`
}

// HasAccount reports whether the user has completed onboarding and owns a
// settlement account. This is the super-state switch for the flow router.
func (u *User) HasAccount() bool {
	return u.AccountNumber != ""
}

// Patch is a partial update to a user record. Keys are the Field* constants
// below; a nil value clears the column. Unmentioned fields are untouched.
type Patch map[string]any

// Merge folds other into p, overwriting on key collision.
func (p Patch) Merge(other Patch) Patch {
	for k, v := range other {
		p[k] = v
	}
	return p
}

// Field names accepted by Patch. The store layer whitelists against these.
const (
	FieldIDType            = "id_type"
	FieldIDNumber          = "id_number"
	FieldIdentityID        = "identity_id"
	FieldOnboardingState   = "onboarding_state"
	FieldAccountNumber     = "account_number"
	FieldAccountName       = "account_name"
	FieldAccountBalance    = "account_balance"
	FieldExternalReference = "external_reference"
	FieldTransferState     = "transfer_state"
	FieldRecipientAccount  = "recipient_account"
	FieldRecipientBankCode = "recipient_bank_code"
	FieldTransferSessionID = "transfer_session_id"
	FieldBankListPage      = "bank_list_page"
	FieldAirtimeState      = "airtime_state"
	FieldNetworkServiceID  = "network_service_id"
	FieldAirtimeRecipient  = "airtime_recipient"
	FieldVoucherState      = "voucher_state"
	FieldSavingsState      = "savings_state"
	FieldFixPlanName       = "fix_plan_name"
	FieldFixDuration       = "fix_duration"
	FieldFixAmount         = "fix_amount"
	FieldHealthState       = "health_state"
	FieldHealthLGA         = "health_lga"
	FieldHealthNIN         = "health_nin"
	FieldHealthTier        = "health_tier"
	FieldStatePickerPage   = "state_picker_page"
	FieldLastActivityAt    = "last_activity_at"
)

// ClearTransferScratch returns a patch that wipes every transfer-flow field.
func ClearTransferScratch() Patch {
	return Patch{
		FieldTransferState:     nil,
		FieldRecipientAccount:  nil,
		FieldRecipientBankCode: nil,
		FieldTransferSessionID: nil,
		FieldBankListPage:      nil,
	}
}

// ClearAirtimeScratch returns a patch that wipes every airtime-flow field.
func ClearAirtimeScratch() Patch {
	return Patch{
		FieldAirtimeState:     nil,
		FieldNetworkServiceID: nil,
		FieldAirtimeRecipient: nil,
	}
}

// ClearVoucherScratch returns a patch that wipes the voucher-flow fields.
func ClearVoucherScratch() Patch {
	return Patch{
		FieldVoucherState: nil,
	}
}

// ClearSavingsScratch returns a patch that wipes every fixed-savings field.
func ClearSavingsScratch() Patch {
	return Patch{
		FieldSavingsState: nil,
		FieldFixPlanName:  nil,
		FieldFixDuration:  nil,
		FieldFixAmount:    nil,
	}
}

// ClearHealthScratch returns a patch that wipes every health-enrollment field.
func ClearHealthScratch() Patch {
	return Patch{
		FieldHealthState:     nil,
		FieldHealthLGA:       nil,
		FieldHealthNIN:       nil,
		FieldHealthTier:      nil,
		FieldStatePickerPage: nil,
	}
}

// ClearAllScratch returns a patch that wipes the scratch state of every flow.
// Applied on menu re-entry and on session timeout so an abandoned flow can
// never leak into a new selection.
func ClearAllScratch() Patch {
	p := Patch{}
	p.Merge(ClearTransferScratch())
	p.Merge(ClearAirtimeScratch())
	p.Merge(ClearVoucherScratch())
	p.Merge(ClearSavingsScratch())
	p.Merge(ClearHealthScratch())
	return p
}
