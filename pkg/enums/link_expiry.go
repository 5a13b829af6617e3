package enums

import (
	"fmt"
	"time"
)

// LinkExpiry is the expiry option picked in the payment link wizard.
type LinkExpiry string

const (
	LinkExpiryOneHour  LinkExpiry = "1h"
	LinkExpiryOneDay   LinkExpiry = "24h"
	LinkExpiryOneWeek  LinkExpiry = "7d"
	LinkExpiryOneMonth LinkExpiry = "30d"
	LinkExpiryCustom   LinkExpiry = "custom"
)

var validLinkExpiries = []LinkExpiry{
	LinkExpiryOneHour,
	LinkExpiryOneDay,
	LinkExpiryOneWeek,
	LinkExpiryOneMonth,
	LinkExpiryCustom,
}

// String implements fmt.Stringer.
func (l LinkExpiry) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LinkExpiry.
func (l LinkExpiry) IsValid() bool {
	for _, candidate := range validLinkExpiries {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkExpiry converts raw input into a LinkExpiry.
func ParseLinkExpiry(value string) (LinkExpiry, error) {
	for _, candidate := range validLinkExpiries {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link expiry %q", value)
}

// Duration returns the fixed lifetime for preset options. Custom expiries
// carry their own timestamp and report false.
func (l LinkExpiry) Duration() (time.Duration, bool) {
	switch l {
	case LinkExpiryOneHour:
		return time.Hour, true
	case LinkExpiryOneDay:
		return 24 * time.Hour, true
	case LinkExpiryOneWeek:
		return 7 * 24 * time.Hour, true
	case LinkExpiryOneMonth:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}
