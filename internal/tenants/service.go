package tenants

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
	"github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

const defaultTombstoneTTL = 10 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// scheduleCache is the slice of the redis client used to retire the cached
// fee schedules of a deleted tenant.
type scheduleCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	FeeScheduleKey(tenantID, method string) string
}

// ServiceParams names the tenant service dependencies. Cache and Logger are optional.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Cache    scheduleCache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

// Service exposes tenant administration.
type Service interface {
	Create(ctx context.Context, input CreateTenantInput) (*TenantDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TenantDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TenantStatus) (*TenantDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	cache    scheduleCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultTombstoneTTL
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		cache:    params.Cache,
		cacheTTL: ttl,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateTenantInput) (*TenantDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	plan := input.Plan
	if plan == "" {
		plan = enums.TenantPlanStarter
	}
	if !plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant email")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a tenant with this email already exists")
	}

	tenant := &models.Tenant{
		ID:     uuid.New(),
		Name:   name,
		Email:  email,
		Plan:   plan,
		Status: enums.TenantStatusActive,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a tenant with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant")
	}
	return FromModel(tenant), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(tenant), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if params.Plan != "" && !params.Plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan filter")
	}

	query := listQuery{
		search: strings.TrimSpace(params.Search),
		status: params.Status,
		plan:   params.Plan,
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
	}
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tenants")
	}

	rows, next := pkgpagination.Trim(rows, params.Limit, func(t models.Tenant) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	items := make([]TenantDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i])
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TenantStatus) (*TenantDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	tenant, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status == status {
		return FromModel(tenant), nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tenant status")
	}
	tenant.Status = status
	return FromModel(tenant), nil
}

// Delete removes the tenant with its fee schedules, gateway configs and payment links.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.find(ctx, repo, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tenant")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dropCachedSchedules(ctx, id)
	return nil
}

// dropCachedSchedules tombstones every fee schedule key of the tenant so a
// quote racing the delete cannot repopulate them. Keys that cannot be
// tombstoned are deleted instead.
func (s *service) dropCachedSchedules(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	var failed []string
	for _, method := range enums.PaymentMethods() {
		key := s.cache.FeeScheduleKey(id.String(), method.String())
		if err := s.cache.Set(ctx, key, redis.FeeScheduleTombstone, s.cacheTTL); err != nil {
			s.warn(ctx, id, "fee schedule cache write failed", err)
			failed = append(failed, key)
		}
	}
	if len(failed) == 0 {
		return
	}
	if err := s.cache.Del(ctx, failed...); err != nil {
		s.warn(ctx, id, "fee schedule cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, id uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"tenant_id": id.String(),
		"error":     err.Error(),
	})
	s.logg.Warn(ctx, msg)
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	tenant, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}
	if tenant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return tenant, nil
}
