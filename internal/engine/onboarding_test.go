package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

func TestOnboardingHappyPath(t *testing.T) {
	h := newHarness() // no record yet
	h.provider.verifyIdentityFn = func(idType, idNumber string) (string, error) {
		if idType != "BVN" || idNumber != "12345678901" {
			t.Errorf("verify args = %q %q", idType, idNumber)
		}
		return "identity-9", nil
	}
	h.provider.createSubAccountFn = func(identityID, phone string) (*domain.SubAccountData, error) {
		if identityID != "identity-9" || phone != testPhone {
			t.Errorf("sub-account args = %q %q", identityID, phone)
		}
		return &domain.SubAccountData{
			AccountNumber:  "0999888777",
			AccountName:    "ADA OBI",
			AccountBalance: 0,
		}, nil
	}

	// First contact creates the record and prompts for the ID type.
	resp := h.handle("")
	if resp.Terminal || !strings.Contains(resp.Text, "1. BVN") {
		t.Fatalf("first contact = %q", resp.Text)
	}
	if got := h.users.users[testPhone].OnboardingState; got != domain.OnboardingAwaitingIDType {
		t.Fatalf("state = %q", got)
	}

	resp = h.handle("1")
	if resp.Terminal || !strings.Contains(resp.Text, "11-digit BVN") {
		t.Fatalf("after ID type = %q", resp.Text)
	}

	resp = h.handle("1*12345678901")
	if resp.Terminal || !strings.Contains(resp.Text, "OTP") {
		t.Fatalf("after ID number = %q", resp.Text)
	}
	if got := h.users.users[testPhone].IdentityID; got != "identity-9" {
		t.Fatalf("identity id = %q", got)
	}

	resp = h.handle("1*12345678901*123456")
	if resp.Terminal || !strings.Contains(resp.Text, "Press 1 to create your account") {
		t.Fatalf("after OTP = %q", resp.Text)
	}

	resp = h.handle("1*12345678901*123456*1")
	if !resp.Terminal || !strings.Contains(resp.Text, "Congratulations") {
		t.Fatalf("confirmation = %q", resp.Text)
	}

	u := h.users.users[testPhone]
	if !u.HasAccount() || u.AccountNumber != "0999888777" || u.OnboardingState != domain.OnboardingCompleted {
		t.Errorf("record after onboarding: %+v", u)
	}
	if len(h.publisher.published) != 1 || h.publisher.published[0] != domain.EventAccountCreated {
		t.Errorf("published = %v", h.publisher.published)
	}
}

func TestOnboardingReplayedHistoryIsRejected(t *testing.T) {
	// The record says the conversation is waiting for an OTP (depth 3), but
	// the aggregator delivers a depth-2 chain. The mismatch is rejected, never
	// re-verified.
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeBVN,
		IDNumber:        "12345678901",
		IdentityID:      "identity-9",
		OnboardingState: domain.OnboardingAwaitingOTP,
	}
	h := newHarness(u)

	resp := h.handle("1*12345678901")
	if !resp.Terminal || !strings.Contains(resp.Text, "expired") {
		t.Fatalf("got %q", resp.Text)
	}
	if len(h.provider.calls) != 0 {
		t.Errorf("provider called on replayed history: %v", h.provider.calls)
	}
}

func TestOnboardingInvalidIDTypeIsTerminal(t *testing.T) {
	u := &domain.User{Phone: testPhone, OnboardingState: domain.OnboardingAwaitingIDType}
	h := newHarness(u)

	resp := h.handle("7")
	if !resp.Terminal || !strings.Contains(resp.Text, "Invalid choice") {
		t.Fatalf("got %q", resp.Text)
	}
}

func TestOnboardingInvalidIDNumberIsTerminal(t *testing.T) {
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeNIN,
		OnboardingState: domain.OnboardingAwaitingIDNumber,
	}
	h := newHarness(u)

	resp := h.handle("2*12345")
	if !resp.Terminal || !strings.Contains(resp.Text, "must be 11 digits") {
		t.Fatalf("got %q", resp.Text)
	}
	if len(h.provider.calls) != 0 {
		t.Errorf("provider called with malformed ID: %v", h.provider.calls)
	}
}

func TestOnboardingVerificationFailureIsTerminal(t *testing.T) {
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeBVN,
		OnboardingState: domain.OnboardingAwaitingIDNumber,
	}
	h := newHarness(u)
	h.provider.verifyIdentityFn = func(idType, idNumber string) (string, error) {
		return "", errors.New("identity not found")
	}

	resp := h.handle("1*12345678901")
	if !resp.Terminal || !strings.Contains(resp.Text, "could not be verified") {
		t.Fatalf("got %q", resp.Text)
	}
	if got := h.users.users[testPhone].OnboardingState; got != domain.OnboardingAwaitingIDNumber {
		t.Errorf("state advanced after failed verification: %q", got)
	}
}

func TestOnboardingOTPStateWithoutIdentityIsExpired(t *testing.T) {
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeBVN,
		OnboardingState: domain.OnboardingAwaitingOTP,
	}
	h := newHarness(u)

	resp := h.handle("1*12345678901*123456")
	if !resp.Terminal || !strings.Contains(resp.Text, "expired") {
		t.Fatalf("got %q", resp.Text)
	}
	if len(h.provider.calls) != 0 {
		t.Errorf("provider called without identity handle: %v", h.provider.calls)
	}
}

func TestOnboardingDeclinedConfirmation(t *testing.T) {
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeBVN,
		IdentityID:      "identity-9",
		OnboardingState: domain.OnboardingAwaitingConfirmation,
	}
	h := newHarness(u)

	resp := h.handle("1*12345678901*123456*2")
	if !resp.Terminal || !strings.Contains(resp.Text, "cancelled") {
		t.Fatalf("got %q", resp.Text)
	}
	if h.users.users[testPhone].HasAccount() {
		t.Error("account created despite declined confirmation")
	}
}

func TestOnboardingEmptyInputResetsAbandonedAttempt(t *testing.T) {
	u := &domain.User{
		Phone:           testPhone,
		IDType:          domain.IDTypeBVN,
		IDNumber:        "12345678901",
		IdentityID:      "identity-9",
		OnboardingState: domain.OnboardingAwaitingOTP,
	}
	h := newHarness(u)

	resp := h.handle("")
	if resp.Terminal || !strings.Contains(resp.Text, "choose your ID type") {
		t.Fatalf("got %q", resp.Text)
	}
	got := h.users.users[testPhone]
	if got.OnboardingState != domain.OnboardingAwaitingIDType ||
		got.IDType != "" || got.IDNumber != "" || got.IdentityID != "" {
		t.Errorf("expected identity scratch reset, got %+v", got)
	}
}
