package fees

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func issueFields(t *testing.T, err error) map[string]int {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	out := map[string]int{}
	for _, issue := range verr.Issues {
		out[issue.Field]++
	}
	return out
}

func TestValidateTiersAcceptsSaneSchedule(t *testing.T) {
	if err := ValidateTiers(twoTierSchedule()); err != nil {
		t.Fatalf("expected valid tiers, got %v", err)
	}
	if err := ValidateTiers(nil); err != nil {
		t.Fatalf("expected empty tiers to be valid, got %v", err)
	}
}

func TestValidateTiersAllowsGaps(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("0"), MaxAmount: dp("10")},
		{MinAmount: d("20")},
	}
	if err := ValidateTiers(tiers); err != nil {
		t.Fatalf("gaps should be allowed, got %v", err)
	}
}

func TestValidateTiersReportsFieldIssues(t *testing.T) {
	tiers := []Tier{
		{ID: "bad", MinAmount: d("-1"), MaxAmount: dp("-5"), FixedFee: d("-2"), PercentageFee: d("101")},
	}
	fields := issueFields(t, ValidateTiers(tiers))
	for _, field := range []string{"min_amount", "max_amount", "fixed_fee", "percentage_fee"} {
		if fields[field] == 0 {
			t.Fatalf("expected issue for %s, got %+v", field, fields)
		}
	}
}

func TestValidateTiersRejectsOverlap(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("0"), MaxAmount: dp("100")},
		{MinAmount: d("100"), MaxAmount: dp("200")},
	}
	err := ValidateTiers(tiers)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 || verr.Issues[0].Index != 1 {
		t.Fatalf("expected single overlap issue on tier 1, got %v", err)
	}
}

func TestValidateTiersRejectsTierAfterUnbounded(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("0")},
		{MinAmount: d("500"), MaxAmount: dp("600")},
	}
	if err := ValidateTiers(tiers); err == nil {
		t.Fatal("expected overlap with unbounded tier")
	}
}

func TestValidateTiersRejectsDescendingOrder(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("100"), MaxAmount: dp("200")},
		{MinAmount: d("0"), MaxAmount: dp("50")},
	}
	fields := issueFields(t, ValidateTiers(tiers))
	if fields["min_amount"] != 1 {
		t.Fatalf("expected ordering issue only, got %+v", fields)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Issues: []TierIssue{{Index: 2, Field: "fixed_fee", Message: "must not be negative"}}}
	if got := err.Error(); got != "invalid fee tiers: tier 2 fixed_fee: must not be negative" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFindGaps(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("10"), MaxAmount: dp("100")},
		{MinAmount: d("100.01"), MaxAmount: dp("500")},
		{MinAmount: d("1000"), MaxAmount: dp("2000")},
	}
	gaps := FindGaps(tiers)
	if len(gaps) != 4 {
		t.Fatalf("expected 4 gaps, got %d: %+v", len(gaps), gaps)
	}
	assertDecimal(t, "leading gap end", "10", *gaps[0].To)
	assertDecimal(t, "boundary gap start", "100", gaps[1].From)
	assertDecimal(t, "boundary gap end", "100.01", *gaps[1].To)
	assertDecimal(t, "middle gap start", "500", gaps[2].From)
	if gaps[3].To != nil {
		t.Fatalf("expected open trailing gap, got %+v", gaps[3])
	}

	if got := FindGaps(twoTierSchedule()); len(got) != 1 {
		t.Fatalf("expected only the 100-100.01 gap, got %+v", got)
	}
	if got := FindGaps(nil); got != nil {
		t.Fatalf("expected no gaps for empty tiers, got %+v", got)
	}
}

func TestValidateTiersRejectsDuplicateIDs(t *testing.T) {
	shared := uuid.New()
	tiers := []Tier{
		{ID: shared.String(), MinAmount: d("0"), MaxAmount: dp("100")},
		{ID: "other", MinAmount: d("200"), MaxAmount: dp("300")},
		{ID: strings.ToUpper(shared.String()), MinAmount: d("400")},
	}
	err := ValidateTiers(tiers)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected one duplicate id issue, got %v", err)
	}
	issue := verr.Issues[0]
	if issue.Index != 2 || issue.Field != "id" || issue.Message != "duplicates tier 0" {
		t.Fatalf("unexpected issue %+v", issue)
	}
}

func TestValidateTiersIgnoresBlankIDs(t *testing.T) {
	tiers := []Tier{
		{MinAmount: d("0"), MaxAmount: dp("100")},
		{MinAmount: d("200")},
	}
	if err := ValidateTiers(tiers); err != nil {
		t.Fatalf("blank ids should not collide, got %v", err)
	}
}
