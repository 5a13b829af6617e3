package middleware

import (
	"net/http"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

const tenantIDParam = "tenantId"

// TenantContext resolves the {tenantId} path segment for tenant-scoped routes.
// Existence is checked by the services, which answer 404 for unknown tenants.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := validators.ParseUUIDParam(r, tenantIDParam)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithTenantID(r.Context(), tenantID)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
