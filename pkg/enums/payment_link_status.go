package enums

import "fmt"

// PaymentLinkStatus tracks the lifecycle of a payment link.
type PaymentLinkStatus string

const (
	PaymentLinkStatusActive    PaymentLinkStatus = "active"
	PaymentLinkStatusPaid      PaymentLinkStatus = "paid"
	PaymentLinkStatusExpired   PaymentLinkStatus = "expired"
	PaymentLinkStatusCancelled PaymentLinkStatus = "cancelled"
)

var validPaymentLinkStatuses = []PaymentLinkStatus{
	PaymentLinkStatusActive,
	PaymentLinkStatusPaid,
	PaymentLinkStatusExpired,
	PaymentLinkStatusCancelled,
}

// String implements fmt.Stringer.
func (p PaymentLinkStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentLinkStatus.
func (p PaymentLinkStatus) IsValid() bool {
	for _, candidate := range validPaymentLinkStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentLinkStatus converts raw input into a PaymentLinkStatus.
func ParsePaymentLinkStatus(value string) (PaymentLinkStatus, error) {
	for _, candidate := range validPaymentLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment link status %q", value)
}

// IsTerminal reports whether the link can no longer change state.
func (p PaymentLinkStatus) IsTerminal() bool {
	return p != PaymentLinkStatusActive
}
