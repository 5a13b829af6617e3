package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/internal/paymentlinks"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

type paymentLinkCreateRequest struct {
	Method        string           `json:"method" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Description   string           `json:"description" validate:"max=500"`
	CustomerEmail string           `json:"customer_email" validate:"omitempty,email"`
	Expiry        string           `json:"expiry"`
	ExpiresAt     *time.Time       `json:"expires_at"`
}

func (p paymentLinkCreateRequest) toInput() (paymentlinks.CreateLinkInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(p.Method))
	if err != nil {
		return paymentlinks.CreateLinkInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	input := paymentlinks.CreateLinkInput{
		Method:        method,
		Amount:        *p.Amount,
		Description:   p.Description,
		CustomerEmail: p.CustomerEmail,
		ExpiresAt:     p.ExpiresAt,
	}
	if raw := strings.TrimSpace(p.Expiry); raw != "" {
		expiry, err := enums.ParseLinkExpiry(raw)
		if err != nil {
			return paymentlinks.CreateLinkInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid expiry option")
		}
		input.Expiry = expiry
	} else if p.ExpiresAt != nil {
		input.Expiry = enums.LinkExpiryCustom
	}
	return input, nil
}

// PaymentLinkCreate handles the generate-payment-link wizard submission.
func PaymentLinkCreate(svc paymentlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentLinkCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.Create(r.Context(), middleware.TenantIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

func PaymentLinkList(svc paymentlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := paymentlinks.ListParams{
			TenantID: middleware.TenantIDFromContext(r.Context()),
			Params:   page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePaymentLinkStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = status
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PaymentLinkGet(svc paymentlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := validators.ParseUUIDParam(r, "linkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.Get(r.Context(), middleware.TenantIDFromContext(r.Context()), linkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}

func PaymentLinkCancel(svc paymentlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := validators.ParseUUIDParam(r, "linkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.Cancel(r.Context(), middleware.TenantIDFromContext(r.Context()), linkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}
