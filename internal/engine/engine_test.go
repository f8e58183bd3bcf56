package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/iyapays/ussd-gateway/internal/domain"
	"github.com/iyapays/ussd-gateway/internal/store"
)

// --- In-memory stubs shared by the engine tests ---

type memUsers struct {
	users     map[string]*domain.User
	updateErr error
	getErr    error
	patches   []domain.Patch
	patchKeys map[string]int
}

func newMemUsers(seed ...*domain.User) *memUsers {
	m := &memUsers{users: map[string]*domain.User{}, patchKeys: map[string]int{}}
	for _, u := range seed {
		clone := *u
		m.users[u.Phone] = &clone
	}
	return m
}

func (m *memUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[phone]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	clone := *user
	m.users[user.Phone] = &clone
	return nil
}

func (m *memUsers) Update(ctx context.Context, phone string, patch domain.Patch) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[phone]
	if !ok {
		return store.ErrNotFound
	}
	m.patches = append(m.patches, patch)
	for k := range patch {
		m.patchKeys[k]++
	}
	applyPatch(u, patch)
	return nil
}

// applyPatch mirrors the store's patch semantics onto the in-memory record.
func applyPatch(u *domain.User, patch domain.Patch) {
	for k, v := range patch {
		switch k {
		case domain.FieldIDType:
			if v == nil {
				u.IDType = ""
			} else {
				u.IDType = v.(domain.IDType)
			}
		case domain.FieldIDNumber:
			u.IDNumber = stringOrEmpty(v)
		case domain.FieldIdentityID:
			u.IdentityID = stringOrEmpty(v)
		case domain.FieldOnboardingState:
			if v == nil {
				u.OnboardingState = ""
			} else {
				u.OnboardingState = v.(domain.OnboardingState)
			}
		case domain.FieldAccountNumber:
			u.AccountNumber = stringOrEmpty(v)
		case domain.FieldAccountName:
			u.AccountName = stringOrEmpty(v)
		case domain.FieldAccountBalance:
			if v == nil {
				u.AccountBalance = 0
			} else {
				u.AccountBalance = v.(float64)
			}
		case domain.FieldExternalReference:
			u.ExternalReference = stringOrEmpty(v)
		case domain.FieldTransferState:
			if v == nil {
				u.TransferState = ""
			} else {
				u.TransferState = v.(domain.TransferState)
			}
		case domain.FieldRecipientAccount:
			u.RecipientAccount = stringOrEmpty(v)
		case domain.FieldRecipientBankCode:
			u.RecipientBankCode = stringOrEmpty(v)
		case domain.FieldTransferSessionID:
			u.TransferSessionID = stringOrEmpty(v)
		case domain.FieldBankListPage:
			u.BankListPage = intOrZero(v)
		case domain.FieldAirtimeState:
			if v == nil {
				u.AirtimeState = ""
			} else {
				u.AirtimeState = v.(domain.AirtimeState)
			}
		case domain.FieldNetworkServiceID:
			u.NetworkServiceID = stringOrEmpty(v)
		case domain.FieldAirtimeRecipient:
			u.AirtimeRecipient = stringOrEmpty(v)
		case domain.FieldVoucherState:
			if v == nil {
				u.VoucherState = ""
			} else {
				u.VoucherState = v.(domain.VoucherState)
			}
		case domain.FieldSavingsState:
			if v == nil {
				u.SavingsState = ""
			} else {
				u.SavingsState = v.(domain.SavingsState)
			}
		case domain.FieldFixPlanName:
			u.FixPlanName = stringOrEmpty(v)
		case domain.FieldFixDuration:
			u.FixDuration = stringOrEmpty(v)
		case domain.FieldFixAmount:
			if v == nil {
				u.FixAmount = 0
			} else {
				u.FixAmount = v.(int64)
			}
		case domain.FieldHealthState:
			if v == nil {
				u.HealthState = ""
			} else {
				u.HealthState = v.(domain.HealthState)
			}
		case domain.FieldHealthLGA:
			u.HealthLGA = stringOrEmpty(v)
		case domain.FieldHealthNIN:
			u.HealthNIN = stringOrEmpty(v)
		case domain.FieldHealthTier:
			u.HealthTier = stringOrEmpty(v)
		case domain.FieldStatePickerPage:
			u.StatePickerPage = intOrZero(v)
		case domain.FieldLastActivityAt:
			if v == nil {
				u.LastActivityAt = time.Time{}
			} else {
				u.LastActivityAt = v.(time.Time)
			}
		}
	}
}

func stringOrEmpty(v any) string {
	if v == nil {
		return ""
	}
	return v.(string)
}

func intOrZero(v any) int {
	if v == nil {
		return 0
	}
	return v.(int)
}

type memVouchers struct {
	tokens map[string]*domain.VoucherToken
}

func newMemVouchers(tokens ...*domain.VoucherToken) *memVouchers {
	m := &memVouchers{tokens: map[string]*domain.VoucherToken{}}
	for _, t := range tokens {
		clone := *t
		m.tokens[t.Value] = &clone
	}
	return m
}

func (m *memVouchers) GetByValue(ctx context.Context, value string) (*domain.VoucherToken, error) {
	t, ok := m.tokens[value]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *memVouchers) SetStatus(ctx context.Context, value, status string) error {
	t, ok := m.tokens[value]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	return nil
}

type memEnrollments struct {
	created []*domain.HealthEnrollment
}

func (m *memEnrollments) Create(ctx context.Context, e *domain.HealthEnrollment) error {
	m.created = append(m.created, e)
	return nil
}

type memPlans struct {
	created []*domain.SavingsPlan
}

func (m *memPlans) Create(ctx context.Context, p *domain.SavingsPlan) error {
	m.created = append(m.created, p)
	return nil
}

// stubProvider delegates to optional function fields and records call names.
type stubProvider struct {
	calls []string

	verifyIdentityFn     func(idType, idNumber string) (string, error)
	validateOTPFn        func(identityID, otp, idType string) (string, error)
	createSubAccountFn   func(identityID, phone string) (*domain.SubAccountData, error)
	nameEnquiryFn        func(bankCode, accountNumber string) (*domain.NameEnquiryData, error)
	transferFn           func(sessionID, debitAccount, bankCode, account string, amount int64) error
	buyAirtimeFn         func(amount int64, debitAccount, recipient, serviceID string) error
	createFixedAccountFn func(accountNumber string, amount int64) error
}

func (s *stubProvider) VerifyIdentity(ctx context.Context, idType, idNumber string) (string, error) {
	s.calls = append(s.calls, "VerifyIdentity")
	if s.verifyIdentityFn != nil {
		return s.verifyIdentityFn(idType, idNumber)
	}
	return "identity-1", nil
}

func (s *stubProvider) ValidateOTP(ctx context.Context, identityID, otp, idType string) (string, error) {
	s.calls = append(s.calls, "ValidateOTP")
	if s.validateOTPFn != nil {
		return s.validateOTPFn(identityID, otp, idType)
	}
	return identityID, nil
}

func (s *stubProvider) CreateSubAccount(ctx context.Context, identityID, phone string) (*domain.SubAccountData, error) {
	s.calls = append(s.calls, "CreateSubAccount")
	if s.createSubAccountFn != nil {
		return s.createSubAccountFn(identityID, phone)
	}
	return &domain.SubAccountData{
		AccountNumber:  "0123456789",
		AccountName:    "Test User",
		AccountBalance: 0,
	}, nil
}

func (s *stubProvider) NameEnquiry(ctx context.Context, bankCode, accountNumber string) (*domain.NameEnquiryData, error) {
	s.calls = append(s.calls, "NameEnquiry")
	if s.nameEnquiryFn != nil {
		return s.nameEnquiryFn(bankCode, accountNumber)
	}
	return &domain.NameEnquiryData{AccountName: "JOHN DOE", SessionID: "session-1"}, nil
}

func (s *stubProvider) Transfer(ctx context.Context, sessionID, debitAccount, bankCode, account string, amount int64) error {
	s.calls = append(s.calls, "Transfer")
	if s.transferFn != nil {
		return s.transferFn(sessionID, debitAccount, bankCode, account, amount)
	}
	return nil
}

func (s *stubProvider) BuyAirtime(ctx context.Context, amount int64, debitAccount, recipient, serviceID string) error {
	s.calls = append(s.calls, "BuyAirtime")
	if s.buyAirtimeFn != nil {
		return s.buyAirtimeFn(amount, debitAccount, recipient, serviceID)
	}
	return nil
}

func (s *stubProvider) CreateFixedAccount(ctx context.Context, accountNumber string, amount int64) error {
	s.calls = append(s.calls, "CreateFixedAccount")
	if s.createFixedAccountFn != nil {
		return s.createFixedAccountFn(accountNumber, amount)
	}
	return nil
}

type stubPublisher struct {
	published []string
}

func (s *stubPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	s.published = append(s.published, routingKey)
	return nil
}

type testHarness struct {
	engine      *Engine
	users       *memUsers
	vouchers    *memVouchers
	enrollments *memEnrollments
	plans       *memPlans
	provider    *stubProvider
	publisher   *stubPublisher
}

func testConfig() Config {
	return Config{
		SessionTimeout:          5 * time.Minute,
		TransferMinAmount:       100,
		TransferMaxAmount:       1000000,
		AirtimeMinAmount:        50,
		AirtimeMaxAmount:        50000,
		SavingsMinAmount:        1000,
		SettlementBankCode:      "090286",
		MasterSettlementAccount: "0118816902",
		EnrollableRegion:        "Plateau",
	}
}

func newHarness(seed ...*domain.User) *testHarness {
	h := &testHarness{
		users:       newMemUsers(seed...),
		vouchers:    newMemVouchers(),
		enrollments: &memEnrollments{},
		plans:       &memPlans{},
		provider:    &stubProvider{},
		publisher:   &stubPublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.engine = New(h.users, h.vouchers, h.enrollments, h.plans, h.provider, h.publisher, logger, testConfig())
	return h
}

const testPhone = "2348012345678"

func activeUser() *domain.User {
	return &domain.User{
		Phone:           testPhone,
		OnboardingState: domain.OnboardingCompleted,
		AccountNumber:   "0123456789",
		AccountName:     "Test User",
		AccountBalance:  5000,
		LastActivityAt:  time.Now(),
	}
}

func (h *testHarness) handle(text string) Response {
	return h.engine.Handle(context.Background(), Request{
		SessionID: "sess-1",
		Phone:     testPhone,
		Text:      text,
	})
}

// --- Router and session lifecycle ---

func TestEmptyInputShowsMenuAndWipesScratch(t *testing.T) {
	u := activeUser()
	u.TransferState = domain.TransferAwaitingAmount
	u.TransferSessionID = "stale-session"
	u.RecipientAccount = "1111111111"
	h := newHarness(u)

	resp := h.handle("")

	if resp.Terminal {
		t.Fatalf("expected continue response, got terminal: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "Welcome back, Test User") {
		t.Errorf("expected welcome menu, got %q", resp.Text)
	}
	got := h.users.users[testPhone]
	if got.TransferState != "" || got.TransferSessionID != "" || got.RecipientAccount != "" {
		t.Errorf("expected transfer scratch wiped, got %+v", got)
	}
}

func TestTimeoutClearsScratchAndIgnoresInput(t *testing.T) {
	u := activeUser()
	u.LastActivityAt = time.Now().Add(-10 * time.Minute)
	u.AirtimeState = domain.AirtimeAwaitingAmount
	u.NetworkServiceID = "svc-1"
	u.AirtimeRecipient = testPhone
	h := newHarness(u)

	resp := h.handle("3*1*1*500")

	if !resp.Terminal {
		t.Fatalf("expected terminal timeout response, got %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "expired") {
		t.Errorf("expected expiry message, got %q", resp.Text)
	}
	if len(h.provider.calls) != 0 {
		t.Errorf("expected no provider calls on timeout, got %v", h.provider.calls)
	}
	got := h.users.users[testPhone]
	if got.AirtimeState != "" || got.NetworkServiceID != "" || got.AirtimeRecipient != "" {
		t.Errorf("expected airtime scratch wiped on timeout, got %+v", got)
	}
}

func TestTimeoutWipesEveryFlowGroup(t *testing.T) {
	u := activeUser()
	u.LastActivityAt = time.Now().Add(-time.Hour)
	u.TransferState = domain.TransferAwaitingBankSelection
	u.BankListPage = 2
	u.VoucherState = domain.VoucherAwaitingCode
	u.SavingsState = domain.SavingsAwaitingDuration
	u.FixPlanName = "Rainy Day"
	u.HealthState = domain.HealthAwaitingNIN
	u.HealthLGA = "Jos North"
	h := newHarness(u)

	resp := h.handle("2*anything")

	if !resp.Terminal {
		t.Fatalf("expected terminal response, got %q", resp.Text)
	}
	got := h.users.users[testPhone]
	if got.TransferState != "" || got.BankListPage != 0 ||
		got.VoucherState != "" || got.SavingsState != "" || got.FixPlanName != "" ||
		got.HealthState != "" || got.HealthLGA != "" {
		t.Errorf("expected all scratch groups wiped, got %+v", got)
	}
}

func TestUnrecognizedChoiceIsTerminalWithoutMutation(t *testing.T) {
	h := newHarness(activeUser())

	resp := h.handle("42")

	if !resp.Terminal {
		t.Fatalf("expected terminal response, got %q", resp.Text)
	}
	// Only the activity stamp may have been written.
	for k, n := range h.users.patchKeys {
		if k != domain.FieldLastActivityAt && n > 0 {
			t.Errorf("unexpected mutation of %s", k)
		}
	}
}

func TestComingSoonChoices(t *testing.T) {
	for _, choice := range []string{"1", "5"} {
		t.Run("choice "+choice, func(t *testing.T) {
			h := newHarness(activeUser())
			resp := h.handle(choice)
			if !resp.Terminal || !strings.Contains(resp.Text, "coming soon") {
				t.Errorf("expected coming-soon terminal, got %q", resp.Text)
			}
		})
	}
}

func TestMyAccountShowsDetails(t *testing.T) {
	h := newHarness(activeUser())

	resp := h.handle("8")

	if !resp.Terminal {
		t.Fatalf("expected terminal response, got %q", resp.Text)
	}
	for _, want := range []string{"Test User", "0123456789", "5000.00"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("expected %q in account details, got %q", want, resp.Text)
		}
	}
}

func TestStoreOutageIsTerminalServiceUnavailable(t *testing.T) {
	h := newHarness(activeUser())
	h.users.getErr = errors.New("connection refused")

	resp := h.handle("")

	if !resp.Terminal || !strings.Contains(resp.Text, "temporarily unavailable") {
		t.Errorf("expected service-unavailable terminal, got %q", resp.Text)
	}
}

func TestResponseRenderPrefixes(t *testing.T) {
	if got := Continue("hello").Render(); !strings.HasPrefix(got, "CON ") {
		t.Errorf("continue render = %q", got)
	}
	if got := End("bye").Render(); !strings.HasPrefix(got, "END ") {
		t.Errorf("end render = %q", got)
	}
}
