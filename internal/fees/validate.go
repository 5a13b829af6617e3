package fees

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TierIssue names one problem with one tier of an edited schedule.
type TierIssue struct {
	Index   int    `json:"index"`
	TierID  string `json:"tier_id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every issue found in a tier list.
type ValidationError struct {
	Issues []TierIssue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "invalid fee tiers"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("tier %d %s: %s", issue.Index, issue.Field, issue.Message))
	}
	return "invalid fee tiers: " + strings.Join(parts, "; ")
}

// ValidateTiers checks tiers entered in the fee editor. It returns nil or a
// *ValidationError. Gaps between tiers are allowed; see FindGaps.
func ValidateTiers(tiers []Tier) error {
	var issues []TierIssue
	add := func(i int, field, msg string) {
		issues = append(issues, TierIssue{Index: i, TierID: tiers[i].ID, Field: field, Message: msg})
	}

	seen := make(map[string]int, len(tiers))
	for i, tier := range tiers {
		if key := tierIDKey(tier.ID); key != "" {
			if first, ok := seen[key]; ok {
				add(i, "id", fmt.Sprintf("duplicates tier %d", first))
			} else {
				seen[key] = i
			}
		}
		if tier.MinAmount.IsNegative() {
			add(i, "min_amount", "must not be negative")
		}
		if tier.FixedFee.IsNegative() {
			add(i, "fixed_fee", "must not be negative")
		}
		if tier.PercentageFee.IsNegative() || tier.PercentageFee.GreaterThan(hundred) {
			add(i, "percentage_fee", "must be between 0 and 100")
		}
		if tier.MaxAmount != nil && tier.MaxAmount.LessThan(tier.MinAmount) {
			add(i, "max_amount", "must be greater than or equal to min_amount")
		}
		if i == 0 {
			continue
		}
		if tier.MinAmount.LessThan(tiers[i-1].MinAmount) {
			add(i, "min_amount", "tiers must be in ascending min_amount order")
		}
		for j := 0; j < i; j++ {
			if overlaps(tiers[j], tier) {
				add(i, "min_amount", fmt.Sprintf("overlaps tier %d", j))
				break
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// tierIDKey normalizes ids that parse as uuids so case variants collide.
func tierIDKey(id string) string {
	id = strings.TrimSpace(id)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

func overlaps(a, b Tier) bool {
	if a.MaxAmount != nil && b.MinAmount.GreaterThan(*a.MaxAmount) {
		return false
	}
	if b.MaxAmount != nil && a.MinAmount.GreaterThan(*b.MaxAmount) {
		return false
	}
	return true
}

// Gap is an amount range no tier covers. Ends are exclusive except for a
// leading gap, which includes zero. A nil To means no upper end.
type Gap struct {
	From decimal.Decimal  `json:"from"`
	To   *decimal.Decimal `json:"to"`
}

// FindGaps reports the uncovered ranges of a list that passed ValidateTiers.
// A gap below the first tier starts at zero; amounts inside a gap get no fee.
func FindGaps(tiers []Tier) []Gap {
	if len(tiers) == 0 {
		return nil
	}
	var gaps []Gap
	if first := tiers[0].MinAmount; first.IsPositive() {
		to := first
		gaps = append(gaps, Gap{From: decimal.Zero, To: &to})
	}
	for i := 1; i < len(tiers); i++ {
		prev := tiers[i-1].MaxAmount
		if prev == nil {
			return gaps
		}
		if tiers[i].MinAmount.GreaterThan(*prev) {
			to := tiers[i].MinAmount
			gaps = append(gaps, Gap{From: *prev, To: &to})
		}
	}
	if last := tiers[len(tiers)-1].MaxAmount; last != nil {
		gaps = append(gaps, Gap{From: *last})
	}
	return gaps
}
