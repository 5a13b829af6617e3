package enums

import "fmt"

// TenantPlan is the subscription tier a tenant is on.
type TenantPlan string

const (
	TenantPlanStarter    TenantPlan = "starter"
	TenantPlanGrowth     TenantPlan = "growth"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

var validTenantPlans = []TenantPlan{
	TenantPlanStarter,
	TenantPlanGrowth,
	TenantPlanEnterprise,
}

// String implements fmt.Stringer.
func (t TenantPlan) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TenantPlan.
func (t TenantPlan) IsValid() bool {
	for _, candidate := range validTenantPlans {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTenantPlan converts raw input into a TenantPlan.
func ParseTenantPlan(value string) (TenantPlan, error) {
	for _, candidate := range validTenantPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant plan %q", value)
}
