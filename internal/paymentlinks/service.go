package paymentlinks

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

const (
	maxCodeAttempts      = 5
	maxDescriptionLength = 500
)

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type feeQuoter interface {
	Quote(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*fees.Quote, error)
}

// Service creates and manages payment links.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateLinkInput) (*LinkDTO, error)
	Get(ctx context.Context, tenantID, linkID uuid.UUID) (*LinkDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Cancel(ctx context.Context, tenantID, linkID uuid.UUID) (*LinkDTO, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	PurgeClosed(ctx context.Context, cutoff time.Time) (int64, error)
}

// ServiceParams names the dependencies of the payment link service. Clock
// defaults to time.Now and Logger is optional.
type ServiceParams struct {
	Repo      Repository
	Tenants   tenantFinder
	Fees      feeQuoter
	BaseURL   string
	MaxExpiry time.Duration
	Clock     func() time.Time
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tenants   tenantFinder
	fees      feeQuoter
	baseURL   string
	maxExpiry time.Duration
	now       func() time.Time
	logg      *logger.Logger
	newCode   func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment link repository required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant lookup required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee quoter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:      params.Repo,
		tenants:   params.Tenants,
		fees:      params.Fees,
		baseURL:   params.BaseURL,
		maxExpiry: params.MaxExpiry,
		now:       clock,
		logg:      params.Logger,
		newCode:   generateCode,
	}, nil
}

func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateLinkInput) (*LinkDTO, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is too long")
	}
	var customerEmail *string
	if email := strings.ToLower(strings.TrimSpace(input.CustomerEmail)); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer email")
		}
		customerEmail = &email
	}

	now := s.now().UTC()
	expiresAt, err := ResolveExpiry(input.Expiry, input.ExpiresAt, now, s.maxExpiry)
	if err != nil {
		return nil, err
	}

	tenant, err := s.requireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status == enums.TenantStatusSuspended {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tenant is suspended")
	}

	quote, err := s.fees.Quote(ctx, tenantID, input.Method, input.Amount)
	if err != nil {
		return nil, err
	}

	link := &models.PaymentLink{
		TenantID:      tenantID,
		Method:        input.Method,
		Currency:      quote.Currency,
		Amount:        quote.Amount,
		Fee:           quote.Fee,
		Net:           quote.Net,
		Description:   description,
		CustomerEmail: customerEmail,
		Status:        enums.PaymentLinkStatusActive,
		ExpiresAt:     expiresAt,
	}
	if err := s.insertWithCode(ctx, link); err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"tenant_id":       tenantID.String(),
			"payment_link_id": link.ID.String(),
			"method":          input.Method.String(),
		})
		s.logg.Info(logCtx, "payment link created")
	}
	return toDTO(link, s.baseURL, now), nil
}

// insertWithCode retries with a fresh code when the generated one collides.
func (s *service) insertWithCode(ctx context.Context, link *models.PaymentLink) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate link code")
		}
		link.ID = uuid.New()
		link.Code = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment link")
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique link code")
}

func (s *service) Get(ctx context.Context, tenantID, linkID uuid.UUID) (*LinkDTO, error) {
	link, err := s.find(ctx, tenantID, linkID)
	if err != nil {
		return nil, err
	}
	return toDTO(link, s.baseURL, s.now().UTC()), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := s.requireTenant(ctx, params.TenantID); err != nil {
		return nil, err
	}
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	now := s.now().UTC()
	rows, err := s.repo.List(ctx, listQuery{
		tenantID: params.TenantID,
		status:   params.Status,
		now:      now,
		limit:    pkgpagination.LimitWithBuffer(params.Limit),
		cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment links")
	}

	rows, next := pkgpagination.Trim(rows, params.Limit, func(l models.PaymentLink) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	items := make([]LinkDTO, len(rows))
	for i := range rows {
		items[i] = *toDTO(&rows[i], s.baseURL, now)
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}

// Cancel deactivates a link that is still payable.
func (s *service) Cancel(ctx context.Context, tenantID, linkID uuid.UUID) (*LinkDTO, error) {
	link, err := s.find(ctx, tenantID, linkID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if status := EffectiveStatus(link, now); status != enums.PaymentLinkStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment link is %s", status))
	}

	updated, err := s.repo.UpdateStatus(ctx, link.ID, enums.PaymentLinkStatusActive, enums.PaymentLinkStatusCancelled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment link")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment link is no longer active")
	}
	link.Status = enums.PaymentLinkStatusCancelled
	return toDTO(link, s.baseURL, now), nil
}

// ExpireDue persists the expired status for links past their expiry.
func (s *service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.ExpireDue(ctx, now.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire payment links")
	}
	return count, nil
}

// PurgeClosed removes expired and cancelled links older than cutoff.
func (s *service) PurgeClosed(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := s.repo.PurgeClosedBefore(ctx, cutoff.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge payment links")
	}
	return count, nil
}

func (s *service) find(ctx context.Context, tenantID, linkID uuid.UUID) (*models.PaymentLink, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if linkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment link id is required")
	}
	link, err := s.repo.FindByID(ctx, tenantID, linkID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment link")
	}
	if link == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment link not found")
	}
	return link, nil
}

func (s *service) requireTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}
	if tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return tenant, nil
}
