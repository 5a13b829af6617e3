package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/internal/gateways"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// gatewayUpsertRequest keeps config raw; its shape depends on kind and is
// decoded by the gateway service.
type gatewayUpsertRequest struct {
	Kind    string          `json:"kind" validate:"required"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config" validate:"required"`
}

func GatewayList(svc gateways.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.TenantIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []gateways.GatewayDTO{}
		}
		responses.WriteSuccess(w, items)
	}
}

func GatewayUpsert(svc gateways.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload gatewayUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseGatewayKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid gateway kind"))
			return
		}
		gateway, err := svc.Upsert(r.Context(), middleware.TenantIDFromContext(r.Context()), gateways.UpsertInput{
			Kind:    kind,
			Enabled: payload.Enabled,
			Config:  payload.Config,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gateway)
	}
}

func GatewayDelete(svc gateways.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := enums.ParseGatewayKind(strings.TrimSpace(chi.URLParam(r, "kind")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid gateway kind"))
			return
		}
		if err := svc.Delete(r.Context(), middleware.TenantIDFromContext(r.Context()), kind); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
