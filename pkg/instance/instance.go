package instance

import "os"

// GetID returns the process instance identifier used in log fields. DYNO is
// checked for hosted dynos, INVOICEDESK_INSTANCE_ID for everything else.
func GetID(fallback string) string {
	for _, key := range []string{"INVOICEDESK_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if fallback == "" {
		return "local"
	}
	return fallback
}
