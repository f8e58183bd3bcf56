/**
 * @description
 * Auxiliary persisted records: voucher tokens redeemed through the USSD menu,
 * health-insurance enrollments, and durable fixed-savings plans.
 */
package domain

import "time"

// Voucher token statuses.
const (
	VoucherStatusActive   = "active"
	VoucherStatusInactive = "inactive"
)

// VoucherToken is a prepaid token that loads its face value into a user's
// account on redemption. A token is spendable only while status is active.
type VoucherToken struct {
	Value     string `json:"value"`
	Status    string `json:"status"`
	FaceValue int64  `json:"face_value"`
}

// Redeemable reports whether the token can still be redeemed.
func (t *VoucherToken) Redeemable() bool {
	return t.Status == VoucherStatusActive && t.FaceValue > 0
}

// HealthEnrollment is a completed health-insurance enrollment, keyed by the
// enrollee's phone number.
type HealthEnrollment struct {
	Phone     string    `json:"phone"`
	Region    string    `json:"region"`
	LGA       string    `json:"lga"`
	NIN       string    `json:"nin"`
	Tier      string    `json:"tier"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// SavingsPlan is a durable record of an open fixed-savings plan. Unlike flow
// scratch it survives the conversation that created it.
type SavingsPlan struct {
	Phone     string    `json:"phone"`
	PlanName  string    `json:"plan_name"`
	Duration  string    `json:"duration"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
