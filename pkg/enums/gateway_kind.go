package enums

import "fmt"

// GatewayKind identifies a payment gateway integration configured for a tenant.
type GatewayKind string

const (
	GatewayKindStripe       GatewayKind = "stripe"
	GatewayKindRazorpay     GatewayKind = "razorpay"
	GatewayKindPayPal       GatewayKind = "paypal"
	GatewayKindBankTransfer GatewayKind = "bank_transfer"
)

var validGatewayKinds = []GatewayKind{
	GatewayKindStripe,
	GatewayKindRazorpay,
	GatewayKindPayPal,
	GatewayKindBankTransfer,
}

// String implements fmt.Stringer.
func (g GatewayKind) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayKind.
func (g GatewayKind) IsValid() bool {
	for _, candidate := range validGatewayKinds {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayKind converts raw input into a GatewayKind.
func ParseGatewayKind(value string) (GatewayKind, error) {
	for _, candidate := range validGatewayKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway kind %q", value)
}
