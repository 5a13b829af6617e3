package tenants

import (
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
	"github.com/angelmondragon/invoicedesk-backend/pkg/types"
)

// ListParams filters the tenant table. Search matches name or email,
// case-insensitively.
type ListParams struct {
	Search string
	Status enums.TenantStatus
	Plan   enums.TenantPlan
	pkgpagination.Params
}

type ListResult = types.Page[TenantDTO]

type listQuery struct {
	search string
	status enums.TenantStatus
	plan   enums.TenantPlan
	limit  int
	cursor *pkgpagination.Cursor
}
