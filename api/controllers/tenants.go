package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/internal/tenants"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

const maxSearchLength = 64

type tenantCreateRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Plan  string `json:"plan" validate:"omitempty,oneof=starter growth enterprise"`
}

type tenantStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

// TenantList answers GET /tenants?search=&status=&plan=&limit=&cursor=.
func TenantList(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		params := tenants.ListParams{
			Search: validators.SanitizeString(query.Get("search"), maxSearchLength),
			Params: page,
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseTenantStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = status
		}
		if raw := strings.TrimSpace(query.Get("plan")); raw != "" {
			plan, err := enums.ParseTenantPlan(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan filter"))
				return
			}
			params.Plan = plan
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func TenantCreate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tenantCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), tenants.CreateTenantInput{
			Name:  payload.Name,
			Email: payload.Email,
			Plan:  enums.TenantPlan(payload.Plan),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func TenantGet(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := svc.Get(r.Context(), middleware.TenantIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

func TenantUpdateStatus(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tenantStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := svc.UpdateStatus(r.Context(), middleware.TenantIDFromContext(r.Context()), enums.TenantStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

func TenantDelete(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), middleware.TenantIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
