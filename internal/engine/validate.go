/**
 * @description
 * Pure input validators shared by the flow machines: amount band checks,
 * phone-number normalization, and fixed-width digit checks for account
 * numbers and identity documents.
 */
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validation failure reasons for amounts. The flows use these to build
// prompts that distinguish "not a number" from "out of band".
var (
	ErrAmountNotNumeric = errors.New("amount is not a number")
	ErrAmountBelowMin   = errors.New("amount is below the minimum")
	ErrAmountAboveMax   = errors.New("amount is above the maximum")
)

// ValidateAmount parses raw as a positive integer amount and checks it
// against the inclusive [min, max] band.
func ValidateAmount(raw string, min, max int64) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrAmountNotNumeric
	}
	if v < min {
		return 0, fmt.Errorf("%w of %d", ErrAmountBelowMin, min)
	}
	if v > max {
		return 0, fmt.Errorf("%w of %d", ErrAmountAboveMax, max)
	}
	return v, nil
}

// IsDigits reports whether s consists of exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ValidAccountNumber reports whether s is a well-formed 10-digit NUBAN.
func ValidAccountNumber(s string) bool {
	return IsDigits(s, 10)
}

// ValidIdentityNumber reports whether s is a well-formed 11-digit BVN or NIN.
func ValidIdentityNumber(s string) bool {
	return IsDigits(s, 11)
}

// NormalizePhone reduces a Nigerian MSISDN to the canonical 13-digit
// 234XXXXXXXXXX form. Accepted inputs: national 0XXXXXXXXXX, international
// +234XXXXXXXXXX, and bare 234XXXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	switch {
	case strings.HasPrefix(s, "0") && IsDigits(s, 11):
		s = "234" + s[1:]
	case strings.HasPrefix(s, "234") && IsDigits(s, 13):
		// already canonical
	default:
		return "", fmt.Errorf("unrecognized phone number format: %q", raw)
	}

	if !IsDigits(s, 13) {
		return "", fmt.Errorf("normalized phone number is not 13 digits: %q", raw)
	}
	return s, nil
}
