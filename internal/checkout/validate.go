package checkout

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validation messages are user-facing and rendered on the payment form
// as-is.
const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidPhone   = "Please enter a valid 10-digit phone number"
	MsgInvalidEmail   = "Please enter a valid email address"
	MsgInvalidAmount  = "Payment amount must be greater than zero"
)

// StripNonDigits normalizes a phone number by removing everything that
// is not a digit. Callers apply it at input time, before validation.
func StripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateRequest checks the payer's input before any network call is
// made. Rules run in a fixed order and the first failure wins; the
// returned error is always a *ValidationError.
func ValidateRequest(req PaymentRequest) error {
	if req.PayerName == "" || req.PayerEmail == "" || req.PayerPhone == "" {
		return &ValidationError{Message: MsgRequiredFields}
	}
	if !phonePattern.MatchString(req.PayerPhone) {
		return &ValidationError{Message: MsgInvalidPhone}
	}
	if !emailPattern.MatchString(req.PayerEmail) {
		return &ValidationError{Message: MsgInvalidEmail}
	}
	if req.Amount <= 0 {
		return &ValidationError{Message: MsgInvalidAmount}
	}
	return nil
}
