package enums

import (
	"fmt"
	"strings"
)

// CallbackOutcome is the result a channel reports for a payment attempt.
type CallbackOutcome string

const (
	OutcomeSuccess CallbackOutcome = "success"
	OutcomeFailed  CallbackOutcome = "failed"
)

// String implements fmt.Stringer.
func (o CallbackOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known CallbackOutcome.
func (o CallbackOutcome) IsValid() bool {
	return o == OutcomeSuccess || o == OutcomeFailed
}

// TargetStatus is the payment status the outcome resolves to.
func (o CallbackOutcome) TargetStatus() PaymentStatus {
	if o == OutcomeSuccess {
		return PaymentStatusPaid
	}
	return PaymentStatusFailed
}

// ParseCallbackOutcome accepts the provider spellings seen in the wild.
func ParseCallbackOutcome(value string) (CallbackOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "success", "successful", "succeeded", "paid", "completed":
		return OutcomeSuccess, nil
	case "failed", "failure", "fail", "cancelled", "canceled", "rejected":
		return OutcomeFailed, nil
	}
	return "", fmt.Errorf("invalid callback outcome %q", value)
}
