/**
 * @description
 * This file defines the domain events published by the USSD gateway to the
 * message broker (RabbitMQ). Downstream services consume them for statements,
 * notifications and out-of-band reconciliation of provider calls.
 *
 * @notes
 * - Events are fire-and-forget from the conversation's point of view; a
 *   publish failure never changes the terminal response shown to the user.
 */
package domain

import "time"

// Routing keys for published events.
const (
	EventAccountCreated   = "ussd.account.created"
	EventTransferComplete = "ussd.transfer.completed"
	EventAirtimeComplete  = "ussd.airtime.completed"
	EventVoucherRedeemed  = "ussd.voucher.redeemed"
	EventSavingsCreated   = "ussd.savings.created"
)

// AccountCreatedEvent is published when onboarding completes.
type AccountCreatedEvent struct {
	Phone         string    `json:"phone"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferCompletedEvent is published after a successful NIP transfer.
type TransferCompletedEvent struct {
	Phone              string    `json:"phone"`
	DebitAccount       string    `json:"debit_account"`
	BeneficiaryAccount string    `json:"beneficiary_account"`
	BeneficiaryBank    string    `json:"beneficiary_bank"`
	Amount             int64     `json:"amount"`
	CompletedAt        time.Time `json:"completed_at"`
}

// AirtimeCompletedEvent is published after a successful airtime purchase.
type AirtimeCompletedEvent struct {
	Phone     string    `json:"phone"`
	Recipient string    `json:"recipient"`
	Network   string    `json:"network_service_id"`
	Amount    int64     `json:"amount"`
	BoughtAt  time.Time `json:"bought_at"`
}

// VoucherRedeemedEvent is published after a voucher's face value has settled
// into the user's account and the token has been retired.
type VoucherRedeemedEvent struct {
	Phone      string    `json:"phone"`
	Voucher    string    `json:"voucher"`
	FaceValue  int64     `json:"face_value"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// SavingsCreatedEvent is published after a fixed-savings plan is opened.
type SavingsCreatedEvent struct {
	Phone     string    `json:"phone"`
	PlanName  string    `json:"plan_name"`
	Duration  string    `json:"duration"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
