package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/iyapays/ussd-gateway/internal/domain"
	"github.com/iyapays/ussd-gateway/internal/engine"
	"github.com/iyapays/ussd-gateway/internal/store"
)

// Minimal fixed-record stores: enough to drive the engine through the
// handler without a database.

type fixedUsers struct {
	user *domain.User
}

func (f *fixedUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if f.user == nil || f.user.Phone != phone {
		return nil, store.ErrNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fixedUsers) Create(ctx context.Context, user *domain.User) error {
	clone := *user
	f.user = &clone
	return nil
}

func (f *fixedUsers) Update(ctx context.Context, phone string, patch domain.Patch) error {
	return nil
}

type noVouchers struct{}

func (noVouchers) GetByValue(ctx context.Context, value string) (*domain.VoucherToken, error) {
	return nil, store.ErrNotFound
}
func (noVouchers) SetStatus(ctx context.Context, value, status string) error { return nil }

type noEnrollments struct{}

func (noEnrollments) Create(ctx context.Context, e *domain.HealthEnrollment) error { return nil }

type noPlans struct{}

func (noPlans) Create(ctx context.Context, p *domain.SavingsPlan) error { return nil }

type noProvider struct{}

func (noProvider) VerifyIdentity(ctx context.Context, idType, idNumber string) (string, error) {
	return "", errors.New("not wired")
}
func (noProvider) ValidateOTP(ctx context.Context, identityID, otp, idType string) (string, error) {
	return "", errors.New("not wired")
}
func (noProvider) CreateSubAccount(ctx context.Context, identityID, phone string) (*domain.SubAccountData, error) {
	return nil, errors.New("not wired")
}
func (noProvider) NameEnquiry(ctx context.Context, bankCode, accountNumber string) (*domain.NameEnquiryData, error) {
	return nil, errors.New("not wired")
}
func (noProvider) Transfer(ctx context.Context, sessionID, debitAccount, bankCode, account string, amount int64) error {
	return errors.New("not wired")
}
func (noProvider) BuyAirtime(ctx context.Context, amount int64, debitAccount, recipient, serviceID string) error {
	return errors.New("not wired")
}
func (noProvider) CreateFixedAccount(ctx context.Context, accountNumber string, amount int64) error {
	return errors.New("not wired")
}

type noPublisher struct{}

func (noPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

// stubLocker scripts the lock outcome per test.
type stubLocker struct {
	acquired bool
	err      error
	released bool
}

func (s *stubLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if !s.acquired {
		return nil, false, nil
	}
	return func() { s.released = true }, true, nil
}

func newTestHandler(locker Locker) *USSDHandler {
	users := &fixedUsers{user: &domain.User{
		Phone:           "2348012345678",
		OnboardingState: domain.OnboardingCompleted,
		AccountNumber:   "0123456789",
		AccountName:     "Test User",
		LastActivityAt:  time.Now(),
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(
		users, noVouchers{}, noEnrollments{}, noPlans{},
		noProvider{}, noPublisher{}, logger,
		engine.Config{
			SessionTimeout:    5 * time.Minute,
			TransferMinAmount: 100, TransferMaxAmount: 1000000,
			AirtimeMinAmount: 50, AirtimeMaxAmount: 50000,
			SavingsMinAmount: 1000,
			EnrollableRegion: "Plateau",
		},
	)
	return NewUSSDHandler(eng, locker, logger)
}

func postCallback(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ussd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func callbackForm(text string) url.Values {
	return url.Values{
		"sessionId":   {"ATUid_1"},
		"phoneNumber": {"2348012345678"},
		"text":        {text},
	}
}

func TestCallbackRendersMainMenu(t *testing.T) {
	router := NewRouter(newTestHandler(nil))

	rec := postCallback(t, router, callbackForm(""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "CON ") {
		t.Errorf("expected CON prefix, got %q", body)
	}
	if !strings.Contains(body, "Welcome back, Test User") {
		t.Errorf("expected main menu, got %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
}

func TestCallbackTerminalResponseUsesEndPrefix(t *testing.T) {
	router := NewRouter(newTestHandler(nil))

	rec := postCallback(t, router, callbackForm("1")) // a coming-soon choice

	if body := rec.Body.String(); !strings.HasPrefix(body, "END ") {
		t.Errorf("expected END prefix, got %q", body)
	}
}

func TestCallbackMissingPhoneIsBadRequest(t *testing.T) {
	router := NewRouter(newTestHandler(nil))

	rec := postCallback(t, router, url.Values{"sessionId": {"ATUid_1"}, "text": {""}})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCallbackLockContention(t *testing.T) {
	// A held lock means a request for this phone is already in flight; the
	// duplicate is answered terminally without running the engine.
	handler := newTestHandler(&stubLocker{acquired: false})
	router := NewRouter(handler)

	rec := postCallback(t, router, callbackForm(""))

	body := rec.Body.String()
	if !strings.HasPrefix(body, "END ") || !strings.Contains(body, "still processing") {
		t.Errorf("expected contention terminal, got %q", body)
	}
}

func TestCallbackLockAcquiredAndReleased(t *testing.T) {
	locker := &stubLocker{acquired: true}
	router := NewRouter(newTestHandler(locker))

	rec := postCallback(t, router, callbackForm(""))

	if body := rec.Body.String(); !strings.HasPrefix(body, "CON ") {
		t.Errorf("expected engine response through held lock, got %q", body)
	}
	if !locker.released {
		t.Error("lock was not released after the request")
	}
}

func TestCallbackLockFailureFailsOpen(t *testing.T) {
	// A broken lock backend must not take the gateway down.
	locker := &stubLocker{err: errors.New("redis unreachable")}
	router := NewRouter(newTestHandler(locker))

	rec := postCallback(t, router, callbackForm(""))

	if body := rec.Body.String(); !strings.HasPrefix(body, "CON ") {
		t.Errorf("expected engine response despite lock failure, got %q", body)
	}
}

func TestRootPathAlsoAcceptsCallback(t *testing.T) {
	router := NewRouter(newTestHandler(nil))

	form := callbackForm("")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "CON ") {
		t.Errorf("root path: status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(newTestHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
