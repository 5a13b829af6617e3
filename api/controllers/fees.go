package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

type tierRequest struct {
	ID            string           `json:"id"`
	MinAmount     *decimal.Decimal `json:"min_amount" validate:"required"`
	MaxAmount     *decimal.Decimal `json:"max_amount"`
	FixedFee      *decimal.Decimal `json:"fixed_fee"`
	PercentageFee *decimal.Decimal `json:"percentage_fee"`
}

func (t tierRequest) toTier() fees.Tier {
	tier := fees.Tier{
		ID:        strings.TrimSpace(t.ID),
		MinAmount: *t.MinAmount,
		MaxAmount: t.MaxAmount,
	}
	if t.FixedFee != nil {
		tier.FixedFee = *t.FixedFee
	}
	if t.PercentageFee != nil {
		tier.PercentageFee = *t.PercentageFee
	}
	return tier
}

func toTiers(reqs []tierRequest) []fees.Tier {
	tiers := make([]fees.Tier, len(reqs))
	for i, req := range reqs {
		tiers[i] = req.toTier()
	}
	return tiers
}

type feePreviewRequest struct {
	Tiers   []tierRequest     `json:"tiers" validate:"dive"`
	Amounts []decimal.Decimal `json:"amounts"`
}

type scheduleCreateRequest struct {
	Method   string        `json:"method" validate:"required"`
	Currency string        `json:"currency"`
	Enabled  *bool         `json:"enabled"`
	Tiers    []tierRequest `json:"tiers" validate:"dive"`
}

type tiersReplaceRequest struct {
	Tiers []tierRequest `json:"tiers" validate:"dive"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type schedulePreviewRequest struct {
	Amounts []decimal.Decimal `json:"amounts"`
}

type quoteRequest struct {
	Method string           `json:"method" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// FeePreview evaluates unsaved tiers against sample amounts.
func FeePreview(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload feePreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.PreviewTiers(r.Context(), toTiers(payload.Tiers), payload.Amounts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, previewFrom(result))
	}
}

func FeeScheduleList(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schedules, err := svc.ListSchedules(r.Context(), middleware.TenantIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if schedules == nil {
			schedules = []fees.Schedule{}
		}
		responses.WriteSuccess(w, schedules)
	}
}

func FeeScheduleCreate(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload scheduleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}
		input := fees.CreateScheduleInput{
			Method:  method,
			Enabled: payload.Enabled,
			Tiers:   toTiers(payload.Tiers),
		}
		if raw := strings.TrimSpace(payload.Currency); raw != "" {
			currency, err := enums.ParseCurrency(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency"))
				return
			}
			input.Currency = currency
		}

		schedule, err := svc.CreateSchedule(r.Context(), middleware.TenantIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, schedule)
	}
}

func FeeScheduleGet(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.GetSchedule(r.Context(), middleware.TenantIDFromContext(r.Context()), scheduleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

func FeeScheduleDelete(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteSchedule(r.Context(), middleware.TenantIDFromContext(r.Context()), scheduleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// FeeScheduleReplaceTiers saves the editor's tier list in the order given.
func FeeScheduleReplaceTiers(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload tiersReplaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.ReplaceTiers(r.Context(), middleware.TenantIDFromContext(r.Context()), scheduleID, toTiers(payload.Tiers))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

func FeeScheduleSetEnabled(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload enabledRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.SetEnabled(r.Context(), middleware.TenantIDFromContext(r.Context()), scheduleID, *payload.Enabled)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}

// FeeSchedulePreview evaluates a saved schedule, enabled or not. Amounts may
// come from the body or from ?amounts=; an empty body uses the defaults.
func FeeSchedulePreview(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amounts, err := validators.ParseQueryDecimals(r, "amounts")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(amounts) == 0 && r.ContentLength > 0 {
			var payload schedulePreviewRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			amounts = payload.Amounts
		}
		result, err := svc.PreviewSchedule(r.Context(), middleware.TenantIDFromContext(r.Context()), scheduleID, amounts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, previewFrom(result))
	}
}

// FeeQuote computes the fee for a real transaction amount.
func FeeQuote(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}
		quote, err := svc.Quote(r.Context(), middleware.TenantIDFromContext(r.Context()), method, *payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quoteFrom(quote))
	}
}
