package enums

import (
	"testing"
	"time"
)

func TestLinkExpiryDuration(t *testing.T) {
	cases := map[LinkExpiry]time.Duration{
		LinkExpiryOneHour:  time.Hour,
		LinkExpiryOneDay:   24 * time.Hour,
		LinkExpiryOneWeek:  168 * time.Hour,
		LinkExpiryOneMonth: 720 * time.Hour,
	}
	for option, want := range cases {
		got, ok := option.Duration()
		if !ok || got != want {
			t.Fatalf("%s: expected %v, got %v (ok=%v)", option, want, got, ok)
		}
	}
	if _, ok := LinkExpiryCustom.Duration(); ok {
		t.Fatal("custom expiry should not report a preset duration")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("upi")
	if err != nil || method != PaymentMethodUPI {
		t.Fatalf("expected upi, got %q err=%v", method, err)
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatal("expected unknown method to fail")
	}
}
