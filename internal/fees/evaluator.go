package fees

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// ErrScheduleDisabled is returned when a disabled schedule is asked for a
// production fee. Admin previews ignore the flag.
var ErrScheduleDisabled = errors.New("fee schedule is disabled")

var hundred = decimal.NewFromInt(100)

// DefaultPreviewAmounts are the sample amounts rendered by the fee preview.
var DefaultPreviewAmounts = []decimal.Decimal{
	decimal.NewFromInt(50),
	decimal.NewFromInt(100),
	decimal.NewFromInt(500),
	decimal.NewFromInt(1000),
	decimal.NewFromInt(5000),
}

// Tier is one amount range of a schedule. Both bounds are inclusive and a nil
// MaxAmount means the tier has no upper bound. PercentageFee uses the 0-100
// scale, so 2.5 means 2.5%.
type Tier struct {
	ID            string           `json:"id,omitempty"`
	MinAmount     decimal.Decimal  `json:"min_amount"`
	MaxAmount     *decimal.Decimal `json:"max_amount"`
	FixedFee      decimal.Decimal  `json:"fixed_fee"`
	PercentageFee decimal.Decimal  `json:"percentage_fee"`
}

// Contains reports whether amount falls inside the tier range.
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinAmount) {
		return false
	}
	return t.MaxAmount == nil || amount.LessThanOrEqual(*t.MaxAmount)
}

// Fee applies the tier formula: fixed + amount * percentage / 100.
func (t Tier) Fee(amount decimal.Decimal) decimal.Decimal {
	return t.FixedFee.Add(amount.Mul(t.PercentageFee.Shift(-2)))
}

// Breakdown is the result of evaluating one amount. TierIndex is -1 when no
// tier matched.
type Breakdown struct {
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Net       decimal.Decimal `json:"net"`
	TierIndex int             `json:"tier_index"`
	TierID    string          `json:"tier_id,omitempty"`
	Matched   bool            `json:"matched"`
}

// MatchTier returns the first tier, in list order, whose range contains amount.
func MatchTier(tiers []Tier, amount decimal.Decimal) (Tier, int, bool) {
	for i, tier := range tiers {
		if tier.Contains(amount) {
			return tier, i, true
		}
	}
	return Tier{}, -1, false
}

// ComputeFee returns the fee for amount under tiers. An amount that no tier
// covers costs nothing. Tiers are taken as given: no validation, no rounding.
func ComputeFee(tiers []Tier, amount decimal.Decimal) decimal.Decimal {
	tier, _, ok := MatchTier(tiers, amount)
	if !ok {
		return decimal.Zero
	}
	return tier.Fee(amount)
}

// Evaluate computes the fee and net for amount. Net is not clamped, so a tier
// charging more than the amount yields a negative net.
func Evaluate(tiers []Tier, amount decimal.Decimal) Breakdown {
	out := Breakdown{
		Amount:    amount,
		Fee:       decimal.Zero,
		TierIndex: -1,
	}
	if tier, idx, ok := MatchTier(tiers, amount); ok {
		out.Fee = tier.Fee(amount)
		out.TierIndex = idx
		out.TierID = tier.ID
		out.Matched = true
	}
	out.Net = amount.Sub(out.Fee)
	return out
}

// Preview evaluates every amount against tiers, keeping the amounts order.
func Preview(tiers []Tier, amounts []decimal.Decimal) []Breakdown {
	rows := make([]Breakdown, len(amounts))
	for i, amount := range amounts {
		rows[i] = Evaluate(tiers, amount)
	}
	return rows
}

// Schedule is the tier list one tenant applies to one payment method.
type Schedule struct {
	ID        uuid.UUID           `json:"id"`
	TenantID  uuid.UUID           `json:"tenant_id"`
	Method    enums.PaymentMethod `json:"method"`
	Enabled   bool                `json:"enabled"`
	Currency  enums.Currency      `json:"currency"`
	Tiers     []Tier              `json:"tiers"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Evaluate is the charge-time path and refuses disabled schedules.
func (s Schedule) Evaluate(amount decimal.Decimal) (Breakdown, error) {
	if !s.Enabled {
		return Breakdown{}, ErrScheduleDisabled
	}
	return Evaluate(s.Tiers, amount), nil
}
