/**
 * @description
 * This package provides a client for interacting with the SafeHaven MFB API.
 * It encapsulates the logic for making authenticated HTTP requests to the
 * identity, transfer, VAS and virtual-account endpoints the gateway uses.
 *
 * Key features:
 * - Manages the API base URL, OAuth access token and client ID headers.
 * - One method per provider operation; the engine depends on these, never on
 *   raw HTTP.
 * - Every call is single-attempt with a bounded timeout. Financial calls are
 *   not idempotent without a provider-side key, so the client never retries;
 *   a timeout is reported as a failure and reconciled out-of-band.
 *
 * @notes
 * - SafeHaven signals application errors through a statusCode field inside a
 *   2xx envelope; both layers are checked before a payload is trusted.
 */
package safehaven

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

// Client is a client for the SafeHaven API.
type Client struct {
	baseURL     string
	accessToken string
	clientID    string
	httpClient  *http.Client

	// Operator settlement account debited for identity verification charges.
	debitAccount string
}

// NewClient creates a new SafeHaven API client.
func NewClient(baseURL, accessToken, clientID, debitAccount string) *Client {
	return &Client{
		baseURL:      baseURL,
		accessToken:  accessToken,
		clientID:     clientID,
		debitAccount: debitAccount,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// VerifyIdentity starts an asynchronous BVN/NIN verification and returns the
// provider's verification handle.
func (c *Client) VerifyIdentity(ctx context.Context, idType, idNumber string) (string, error) {
	req := domain.VerifyIdentityRequest{
		Type:               idType,
		Async:              true,
		Number:             idNumber,
		DebitAccountNumber: c.debitAccount,
	}
	var resp domain.VerifyIdentityResponse
	if err := c.do(ctx, http.MethodPost, "/identity/v2", req, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("identity verification returned no handle")
	}
	return resp.Data.ID, nil
}

// ValidateOTP confirms an identity verification with the OTP sent to the
// document holder. It returns the (possibly re-issued) verification handle.
func (c *Client) ValidateOTP(ctx context.Context, identityID, otp, idType string) (string, error) {
	req := domain.ValidateOTPRequest{
		Type:       idType,
		IdentityID: identityID,
		OTP:        otp,
	}
	var resp domain.VerifyIdentityResponse
	if err := c.do(ctx, http.MethodPost, "/identity/v2/validate", req, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// CreateSubAccount opens a settlement sub-account for a verified identity.
func (c *Client) CreateSubAccount(ctx context.Context, identityID, phone string) (*domain.SubAccountData, error) {
	req := domain.CreateSubAccountRequest{
		PhoneNumber:       phone,
		EmailAddress:      fmt.Sprintf("%s@iyapays.com", phone),
		IdentityType:      "vID",
		AutoSweep:         false,
		AutoSweepDetails:  map[string]string{"schedule": "Instant"},
		ExternalReference: shortReference(),
		IdentityID:        identityID,
	}
	var resp domain.CreateSubAccountResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/v2/subaccount", req, &resp); err != nil {
		return nil, err
	}
	if resp.Data.AccountNumber == "" {
		return nil, fmt.Errorf("sub-account creation returned no account number")
	}
	return &resp.Data, nil
}

// NameEnquiry resolves an account number at a bank to its holder and returns
// the session that a subsequent transfer must reference.
func (c *Client) NameEnquiry(ctx context.Context, bankCode, accountNumber string) (*domain.NameEnquiryData, error) {
	req := domain.NameEnquiryRequest{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
	}
	var resp domain.NameEnquiryResponse
	if err := c.do(ctx, http.MethodPost, "/transfers/name-enquiry", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Transfer executes a NIP transfer referencing an earlier name enquiry.
func (c *Client) Transfer(ctx context.Context, sessionID, debitAccount, beneficiaryBankCode, beneficiaryAccount string, amount int64) error {
	req := domain.TransferRequest{
		SaveBeneficiary:          false,
		NameEnquiryReference:     sessionID,
		DebitAccountNumber:       debitAccount,
		BeneficiaryBankCode:      beneficiaryBankCode,
		BeneficiaryAccountNumber: beneficiaryAccount,
		Amount:                   amount,
		Narration:                shortReference(),
		PaymentReference:         shortReference(),
	}
	var resp domain.TransferResponse
	return c.do(ctx, http.MethodPost, "/transfers", req, &resp)
}

// BuyAirtime purchases airtime through the VAS rail.
func (c *Client) BuyAirtime(ctx context.Context, amount int64, debitAccount, recipientPhone, serviceCategoryID string) error {
	req := domain.BuyAirtimeRequest{
		Amount:             amount,
		Channel:            "WEB",
		DebitAccountNumber: debitAccount,
		PhoneNumber:        recipientPhone,
		ServiceCategoryID:  serviceCategoryID,
	}
	var resp domain.BuyAirtimeResponse
	return c.do(ctx, http.MethodPost, "/vas/pay/airtime", req, &resp)
}

// CreateFixedAccount opens a fixed-amount virtual account settling into the
// operator's master account.
func (c *Client) CreateFixedAccount(ctx context.Context, accountNumber string, amount int64) error {
	req := domain.CreateFixedAccountRequest{
		ValidFor: 72000,
		SettlementAccount: map[string]string{
			"bankCode":      "090286",
			"accountNumber": c.debitAccount,
		},
		AmountControl:     "Fixed",
		Amount:            amount,
		ExternalReference: shortReference(),
		CallbackURL:       "https://www.iyapays.com",
	}
	var resp domain.CreateFixedAccountResponse
	return c.do(ctx, http.MethodPost, "/virtual-accounts", req, &resp)
}

// do is a helper function to make HTTP requests to the SafeHaven API.
func (c *Client) do(ctx context.Context, method, endpoint string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("ClientID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("safehaven API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	// The provider reports application errors inside 2xx envelopes.
	var env domain.Envelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.StatusCode != 0 && env.StatusCode != http.StatusOK {
		return fmt.Errorf("safehaven API rejected request: %s", env.Message)
	}

	return nil
}

// shortReference produces the short uppercase reference SafeHaven expects for
// narrations and payment references.
func shortReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return id[:12]
}
