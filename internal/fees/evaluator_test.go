package fees

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func dp(value string) *decimal.Decimal {
	v := d(value)
	return &v
}

func twoTierSchedule() []Tier {
	return []Tier{
		{ID: "a", MinAmount: d("0"), MaxAmount: dp("100"), FixedFee: d("4"), PercentageFee: d("2")},
		{ID: "b", MinAmount: d("100.01"), MaxAmount: nil, FixedFee: d("2"), PercentageFee: d("1")},
	}
}

func assertDecimal(t *testing.T, label string, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got.String())
	}
}

func TestComputeFeeBoundsAreInclusive(t *testing.T) {
	tiers := twoTierSchedule()

	assertDecimal(t, "upper bound of first tier", "6", ComputeFee(tiers, d("100")))
	assertDecimal(t, "lower bound of second tier", "3.0001", ComputeFee(tiers, d("100.01")))
	assertDecimal(t, "lower bound of first tier", "4", ComputeFee(tiers, d("0")))
}

func TestComputeFeeUnboundedTier(t *testing.T) {
	tiers := twoTierSchedule()

	assertDecimal(t, "large amount", "10002", ComputeFee(tiers, d("1000000")))
}

func TestComputeFeeNoMatchIsZero(t *testing.T) {
	tiers := []Tier{{MinAmount: d("10"), MaxAmount: dp("20"), FixedFee: d("1"), PercentageFee: d("5")}}

	assertDecimal(t, "below lowest tier", "0", ComputeFee(tiers, d("5")))
	assertDecimal(t, "above highest tier", "0", ComputeFee(tiers, d("25")))

	gap := []Tier{
		{MinAmount: d("0"), MaxAmount: dp("10"), FixedFee: d("1")},
		{MinAmount: d("20"), FixedFee: d("2")},
	}
	assertDecimal(t, "inside gap", "0", ComputeFee(gap, d("15")))
}

func TestComputeFeeZeroTiers(t *testing.T) {
	assertDecimal(t, "empty", "0", ComputeFee(nil, d("100")))
	assertDecimal(t, "empty slice", "0", ComputeFee([]Tier{}, d("100")))
}

func TestComputeFeeFirstMatchWins(t *testing.T) {
	wide := Tier{ID: "wide", MinAmount: d("0"), MaxAmount: dp("1000"), FixedFee: d("10")}
	narrow := Tier{ID: "narrow", MinAmount: d("40"), MaxAmount: dp("60"), FixedFee: d("1")}

	assertDecimal(t, "wide first", "10", ComputeFee([]Tier{wide, narrow}, d("50")))
	assertDecimal(t, "narrow first", "1", ComputeFee([]Tier{narrow, wide}, d("50")))

	_, idx, ok := MatchTier([]Tier{narrow, wide}, d("50"))
	if !ok || idx != 0 {
		t.Fatalf("expected first tier to match, got idx=%d ok=%v", idx, ok)
	}
}

func TestEvaluateFormulaIsExact(t *testing.T) {
	tiers := []Tier{{ID: "flat", MinAmount: d("0"), FixedFee: d("10"), PercentageFee: d("2.5")}}

	got := Evaluate(tiers, d("500"))
	assertDecimal(t, "fee", "22.5", got.Fee)
	assertDecimal(t, "net", "477.5", got.Net)
	if !got.Matched || got.TierIndex != 0 || got.TierID != "flat" {
		t.Fatalf("unexpected match metadata: %+v", got)
	}
}

func TestEvaluateDoesNotRound(t *testing.T) {
	tiers := []Tier{{MinAmount: d("0"), PercentageFee: d("0.333")}}

	got := Evaluate(tiers, d("10.01"))
	assertDecimal(t, "fee", "0.0333333", got.Fee)
}

func TestEvaluateNetIsNotClamped(t *testing.T) {
	tiers := []Tier{{MinAmount: d("0"), FixedFee: d("15")}}

	got := Evaluate(tiers, d("10"))
	assertDecimal(t, "net", "-5", got.Net)
}

func TestEvaluateUnmatched(t *testing.T) {
	got := Evaluate(nil, d("42"))
	if got.Matched || got.TierIndex != -1 || got.TierID != "" {
		t.Fatalf("expected unmatched breakdown, got %+v", got)
	}
	assertDecimal(t, "fee", "0", got.Fee)
	assertDecimal(t, "net", "42", got.Net)
}

func TestEvaluateToleratesMalformedInput(t *testing.T) {
	inverted := []Tier{{MinAmount: d("100"), MaxAmount: dp("10"), FixedFee: d("1")}}
	assertDecimal(t, "inverted range", "0", ComputeFee(inverted, d("50")))

	negative := []Tier{{MinAmount: d("-100"), FixedFee: d("-1"), PercentageFee: d("10")}}
	assertDecimal(t, "negative amount", "-6", ComputeFee(negative, d("-50")))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	tiers := twoTierSchedule()
	amount := d("250.75")

	first := Evaluate(tiers, amount)
	for i := 0; i < 10; i++ {
		got := Evaluate(tiers, amount)
		if !got.Fee.Equal(first.Fee) || !got.Net.Equal(first.Net) || got.TierIndex != first.TierIndex {
			t.Fatalf("evaluation drifted on call %d: %+v vs %+v", i, got, first)
		}
	}
	if tiers[0].MaxAmount.String() != "100" {
		t.Fatalf("tiers mutated: %+v", tiers[0])
	}
}

func TestEvaluateConcurrentCalls(t *testing.T) {
	tiers := twoTierSchedule()
	want := ComputeFee(tiers, d("5000"))

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ComputeFee(tiers, d("5000")); !got.Equal(want) {
				errs <- got.String()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Fatalf("concurrent evaluation returned %s, want %s", got, want.String())
	}
}

func TestPreviewKeepsAmountOrder(t *testing.T) {
	rows := Preview(twoTierSchedule(), DefaultPreviewAmounts)
	if len(rows) != len(DefaultPreviewAmounts) {
		t.Fatalf("expected %d rows, got %d", len(DefaultPreviewAmounts), len(rows))
	}
	wantFees := []string{"5", "6", "7", "12", "52"}
	for i, row := range rows {
		if !row.Amount.Equal(DefaultPreviewAmounts[i]) {
			t.Fatalf("row %d amount %s out of order", i, row.Amount)
		}
		assertDecimal(t, "preview fee", wantFees[i], row.Fee)
	}
}

func TestScheduleEvaluateRejectsDisabled(t *testing.T) {
	schedule := Schedule{Enabled: false, Tiers: twoTierSchedule()}
	if _, err := schedule.Evaluate(d("100")); !errors.Is(err, ErrScheduleDisabled) {
		t.Fatalf("expected ErrScheduleDisabled, got %v", err)
	}

	schedule.Enabled = true
	got, err := schedule.Evaluate(d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "fee", "6", got.Fee)
}
