package enums

import "fmt"

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentStatusPaid
}

// CanTransitionTo encodes pending->paid, pending->failed and failed->paid.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch p {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusFailed
	case PaymentStatusFailed:
		return next == PaymentStatusPaid
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
