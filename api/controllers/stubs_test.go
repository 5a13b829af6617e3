package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/internal/gateways"
	"github.com/angelmondragon/invoicedesk-backend/internal/paymentlinks"
	"github.com/angelmondragon/invoicedesk-backend/internal/tenants"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// withRoute attaches chi URL params and the tenant context the router would set.
func withRoute(req *http.Request, tenantID uuid.UUID, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if tenantID != uuid.Nil {
		ctx = middleware.WithTenantID(ctx, tenantID)
	}
	return req.WithContext(ctx)
}

type stubFeeService struct {
	schedule     *fees.Schedule
	schedules    []fees.Schedule
	preview      *fees.PreviewResult
	quote        *fees.Quote
	err          error
	gotTiers     []fees.Tier
	gotAmounts   []decimal.Decimal
	gotEnabled   *bool
	gotInput     fees.CreateScheduleInput
	gotTenantID  uuid.UUID
	gotMethod    enums.PaymentMethod
	gotAmount    decimal.Decimal
	deletedSched uuid.UUID
}

func (s *stubFeeService) CreateSchedule(_ context.Context, tenantID uuid.UUID, input fees.CreateScheduleInput) (*fees.Schedule, error) {
	s.gotTenantID = tenantID
	s.gotInput = input
	return s.schedule, s.err
}

func (s *stubFeeService) GetSchedule(_ context.Context, tenantID, _ uuid.UUID) (*fees.Schedule, error) {
	s.gotTenantID = tenantID
	return s.schedule, s.err
}

func (s *stubFeeService) ListSchedules(_ context.Context, tenantID uuid.UUID) ([]fees.Schedule, error) {
	s.gotTenantID = tenantID
	return s.schedules, s.err
}

func (s *stubFeeService) ReplaceTiers(_ context.Context, _ uuid.UUID, _ uuid.UUID, tiers []fees.Tier) (*fees.Schedule, error) {
	s.gotTiers = tiers
	return s.schedule, s.err
}

func (s *stubFeeService) SetEnabled(_ context.Context, _ uuid.UUID, _ uuid.UUID, enabled bool) (*fees.Schedule, error) {
	s.gotEnabled = &enabled
	return s.schedule, s.err
}

func (s *stubFeeService) DeleteSchedule(_ context.Context, _ uuid.UUID, scheduleID uuid.UUID) error {
	s.deletedSched = scheduleID
	return s.err
}

func (s *stubFeeService) PreviewSchedule(_ context.Context, _ uuid.UUID, _ uuid.UUID, amounts []decimal.Decimal) (*fees.PreviewResult, error) {
	s.gotAmounts = amounts
	return s.preview, s.err
}

func (s *stubFeeService) PreviewTiers(_ context.Context, tiers []fees.Tier, amounts []decimal.Decimal) (*fees.PreviewResult, error) {
	s.gotTiers = tiers
	s.gotAmounts = amounts
	if s.err != nil {
		return nil, s.err
	}
	rows := make([]fees.Breakdown, len(amounts))
	for i, amount := range amounts {
		rows[i] = fees.Evaluate(tiers, amount)
	}
	return &fees.PreviewResult{Currency: enums.CurrencyINR, Rows: rows, Gaps: fees.FindGaps(tiers)}, nil
}

func (s *stubFeeService) Quote(_ context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*fees.Quote, error) {
	s.gotTenantID = tenantID
	s.gotMethod = method
	s.gotAmount = amount
	return s.quote, s.err
}

type stubTenantService struct {
	dto       *tenants.TenantDTO
	list      *tenants.ListResult
	err       error
	gotInput  tenants.CreateTenantInput
	gotParams tenants.ListParams
	gotStatus enums.TenantStatus
	deleted   uuid.UUID
}

func (s *stubTenantService) Create(_ context.Context, input tenants.CreateTenantInput) (*tenants.TenantDTO, error) {
	s.gotInput = input
	return s.dto, s.err
}

func (s *stubTenantService) Get(_ context.Context, _ uuid.UUID) (*tenants.TenantDTO, error) {
	return s.dto, s.err
}

func (s *stubTenantService) List(_ context.Context, params tenants.ListParams) (*tenants.ListResult, error) {
	s.gotParams = params
	return s.list, s.err
}

func (s *stubTenantService) UpdateStatus(_ context.Context, _ uuid.UUID, status enums.TenantStatus) (*tenants.TenantDTO, error) {
	s.gotStatus = status
	return s.dto, s.err
}

func (s *stubTenantService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

type stubGatewayService struct {
	dto      *gateways.GatewayDTO
	list     []gateways.GatewayDTO
	err      error
	gotInput gateways.UpsertInput
	gotKind  enums.GatewayKind
}

func (s *stubGatewayService) Upsert(_ context.Context, _ uuid.UUID, input gateways.UpsertInput) (*gateways.GatewayDTO, error) {
	s.gotInput = input
	return s.dto, s.err
}

func (s *stubGatewayService) List(_ context.Context, _ uuid.UUID) ([]gateways.GatewayDTO, error) {
	return s.list, s.err
}

func (s *stubGatewayService) Delete(_ context.Context, _ uuid.UUID, kind enums.GatewayKind) error {
	s.gotKind = kind
	return s.err
}

type stubLinkService struct {
	dto       *paymentlinks.LinkDTO
	list      *paymentlinks.ListResult
	err       error
	gotInput  paymentlinks.CreateLinkInput
	gotParams paymentlinks.ListParams
	gotLinkID uuid.UUID
}

func (s *stubLinkService) Create(_ context.Context, _ uuid.UUID, input paymentlinks.CreateLinkInput) (*paymentlinks.LinkDTO, error) {
	s.gotInput = input
	return s.dto, s.err
}

func (s *stubLinkService) Get(_ context.Context, _ uuid.UUID, linkID uuid.UUID) (*paymentlinks.LinkDTO, error) {
	s.gotLinkID = linkID
	return s.dto, s.err
}

func (s *stubLinkService) List(_ context.Context, params paymentlinks.ListParams) (*paymentlinks.ListResult, error) {
	s.gotParams = params
	return s.list, s.err
}

func (s *stubLinkService) Cancel(_ context.Context, _ uuid.UUID, linkID uuid.UUID) (*paymentlinks.LinkDTO, error) {
	s.gotLinkID = linkID
	return s.dto, s.err
}

func (s *stubLinkService) ExpireDue(context.Context, time.Time) (int64, error) { return 0, nil }

func (s *stubLinkService) PurgeClosed(context.Context, time.Time) (int64, error) { return 0, nil }
