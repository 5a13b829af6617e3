package paymentlinks

import (
	"time"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

// ResolveExpiry turns the wizard expiry option into an absolute timestamp.
// Custom expiries must lie in (now, now+maxAhead].
func ResolveExpiry(option enums.LinkExpiry, custom *time.Time, now time.Time, maxAhead time.Duration) (time.Time, error) {
	if option == "" {
		option = enums.LinkExpiryOneDay
	}
	if !option.IsValid() {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid expiry option")
	}
	if lifetime, ok := option.Duration(); ok {
		return now.Add(lifetime).UTC(), nil
	}

	if custom == nil || custom.IsZero() {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at is required for a custom expiry")
	}
	expiresAt := custom.UTC()
	if !expiresAt.After(now) {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future")
	}
	if maxAhead > 0 && expiresAt.Sub(now) > maxAhead {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at is too far in the future")
	}
	return expiresAt, nil
}
