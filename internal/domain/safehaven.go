/**
 * @description
 * This file defines the Go structs that map to the SafeHaven MFB API payloads
 * used by the gateway: identity verification, sub-account creation, name
 * enquiry, transfers, airtime purchase, and fixed virtual accounts.
 *
 * @notes
 * - SafeHaven wraps every response in an envelope carrying its own statusCode
 *   alongside the HTTP status; both must signal success before a payload is
 *   trusted.
 * - These structs are used by the safehaven client to serialize requests and
 *   deserialize responses. The engine never sees raw JSON.
 */
package domain

// Envelope is the outer shape of every SafeHaven response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// --- Identity verification ---

// VerifyIdentityRequest starts an asynchronous BVN/NIN verification.
type VerifyIdentityRequest struct {
	Type               string `json:"type"`
	Async              bool   `json:"async"`
	Number             string `json:"number"`
	DebitAccountNumber string `json:"debitAccountNumber"`
}

// IdentityData is the verification handle returned by the provider. The
// handle must be echoed into the OTP validation and account creation calls.
type IdentityData struct {
	ID string `json:"_id"`
}

// VerifyIdentityResponse is the envelope for identity initiation/validation.
type VerifyIdentityResponse struct {
	Envelope
	Data IdentityData `json:"data"`
}

// ValidateOTPRequest confirms an identity verification with the OTP sent to
// the document holder's registered phone.
type ValidateOTPRequest struct {
	Type       string `json:"type"`
	IdentityID string `json:"identityId"`
	OTP        string `json:"otp"`
}

// --- Sub-account creation ---

// CreateSubAccountRequest opens a settlement sub-account for a verified identity.
type CreateSubAccountRequest struct {
	PhoneNumber       string            `json:"phoneNumber"`
	EmailAddress      string            `json:"emailAddress"`
	IdentityType      string            `json:"identityType"`
	AutoSweep         bool              `json:"autoSweep"`
	AutoSweepDetails  map[string]string `json:"autoSweepDetails"`
	ExternalReference string            `json:"externalReference"`
	IdentityID        string            `json:"identityId"`
}

// SubAccountData holds the provisioned account details.
type SubAccountData struct {
	ID                string  `json:"_id"`
	AccountNumber     string  `json:"accountNumber"`
	AccountName       string  `json:"accountName"`
	AccountBalance    float64 `json:"accountBalance"`
	ExternalReference string  `json:"externalReference"`
}

// CreateSubAccountResponse is the envelope for sub-account creation.
type CreateSubAccountResponse struct {
	Envelope
	Data SubAccountData `json:"data"`
}

// --- Transfers ---

// NameEnquiryRequest resolves an account number at a bank to its holder.
type NameEnquiryRequest struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

// NameEnquiryData carries the beneficiary name and the provider session that
// must be replayed verbatim into the subsequent transfer call.
type NameEnquiryData struct {
	AccountName string `json:"accountName"`
	SessionID   string `json:"sessionId"`
}

// NameEnquiryResponse is the envelope for name enquiry.
type NameEnquiryResponse struct {
	Envelope
	Data NameEnquiryData `json:"data"`
}

// TransferRequest moves funds between NIP accounts.
type TransferRequest struct {
	SaveBeneficiary          bool   `json:"saveBeneficiary"`
	NameEnquiryReference     string `json:"nameEnquiryReference"`
	DebitAccountNumber       string `json:"debitAccountNumber"`
	BeneficiaryBankCode      string `json:"beneficiaryBankCode"`
	BeneficiaryAccountNumber string `json:"beneficiaryAccountNumber"`
	Amount                   int64  `json:"amount"`
	Narration                string `json:"narration"`
	PaymentReference         string `json:"paymentReference"`
}

// TransferResponse is the envelope for a transfer acknowledgement.
type TransferResponse struct {
	Envelope
}

// --- Airtime ---

// BuyAirtimeRequest purchases airtime through the provider's VAS rail.
type BuyAirtimeRequest struct {
	Amount             int64  `json:"amount"`
	Channel            string `json:"channel"`
	DebitAccountNumber string `json:"debitAccountNumber"`
	PhoneNumber        string `json:"phoneNumber"`
	ServiceCategoryID  string `json:"serviceCategoryId"`
}

// BuyAirtimeResponse is the envelope for an airtime acknowledgement.
type BuyAirtimeResponse struct {
	Envelope
}

// --- Fixed virtual accounts ---

// CreateFixedAccountRequest opens a fixed-amount virtual account settling
// into the operator's master account, used to hold a fixed-savings deposit.
type CreateFixedAccountRequest struct {
	ValidFor          int               `json:"validFor"`
	SettlementAccount map[string]string `json:"settlementAccount"`
	AmountControl     string            `json:"amountControl"`
	Amount            int64             `json:"amount"`
	ExternalReference string            `json:"externalReference"`
	CallbackURL       string            `json:"callbackUrl"`
}

// CreateFixedAccountResponse is the envelope for a fixed virtual account.
type CreateFixedAccountResponse struct {
	Envelope
}
