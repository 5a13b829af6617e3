package enums

import "fmt"

// TenantStatus tracks whether a tenant may bill customers.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

var validTenantStatuses = []TenantStatus{
	TenantStatusActive,
	TenantStatusSuspended,
}

// String implements fmt.Stringer.
func (t TenantStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TenantStatus.
func (t TenantStatus) IsValid() bool {
	for _, candidate := range validTenantStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTenantStatus converts raw input into a TenantStatus.
func ParseTenantStatus(value string) (TenantStatus, error) {
	for _, candidate := range validTenantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant status %q", value)
}
