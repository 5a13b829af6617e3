package fees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
)

const maxPreviewAmounts = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Service manages fee schedules and quotes fees at charge time.
type Service interface {
	CreateSchedule(ctx context.Context, tenantID uuid.UUID, input CreateScheduleInput) (*Schedule, error)
	GetSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) (*Schedule, error)
	ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]Schedule, error)
	ReplaceTiers(ctx context.Context, tenantID, scheduleID uuid.UUID, tiers []Tier) (*Schedule, error)
	SetEnabled(ctx context.Context, tenantID, scheduleID uuid.UUID, enabled bool) (*Schedule, error)
	DeleteSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) error
	PreviewSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID, amounts []decimal.Decimal) (*PreviewResult, error)
	PreviewTiers(ctx context.Context, tiers []Tier, amounts []decimal.Decimal) (*PreviewResult, error)
	Quote(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*Quote, error)
}

// CreateScheduleInput describes a new schedule. Enabled defaults to true and
// Currency to the configured default.
type CreateScheduleInput struct {
	Method   enums.PaymentMethod
	Currency enums.Currency
	Enabled  *bool
	Tiers    []Tier
}

// PreviewResult is the fee table shown next to the tier editor.
type PreviewResult struct {
	ScheduleID *uuid.UUID          `json:"schedule_id,omitempty"`
	Method     enums.PaymentMethod `json:"method,omitempty"`
	Currency   enums.Currency      `json:"currency"`
	Enabled    bool                `json:"enabled"`
	Rows       []Breakdown         `json:"rows"`
	Gaps       []Gap               `json:"gaps"`
	Issues     []TierIssue         `json:"issues,omitempty"`
}

// Quote is the fee withheld for a single transaction.
type Quote struct {
	TenantID   uuid.UUID           `json:"tenant_id"`
	ScheduleID uuid.UUID           `json:"schedule_id"`
	Method     enums.PaymentMethod `json:"method"`
	Currency   enums.Currency      `json:"currency"`
	Breakdown
}

// ServiceParams names the dependencies of the fee service. Cache, Metrics and
// Logger are optional.
type ServiceParams struct {
	Repo            Repository
	Tx              txRunner
	Tenants         tenantFinder
	Cache           cacheStore
	CacheTTL        time.Duration
	Metrics         *metrics.FeeMetrics
	Logger          *logger.Logger
	DefaultCurrency enums.Currency
	PreviewAmounts  []decimal.Decimal
}

type service struct {
	repo            Repository
	tx              txRunner
	tenants         tenantFinder
	cache           *scheduleCache
	metrics         *metrics.FeeMetrics
	logg            *logger.Logger
	defaultCurrency enums.Currency
	previewAmounts  []decimal.Decimal
}

// NewService builds the fee schedule service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("fee schedule repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant lookup required")
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("invalid default currency %q", currency)
	}
	amounts := params.PreviewAmounts
	if len(amounts) == 0 {
		amounts = DefaultPreviewAmounts
	}
	var cache *scheduleCache
	if params.Cache != nil {
		cache = newScheduleCache(params.Cache, params.CacheTTL)
	}
	return &service{
		repo:            params.Repo,
		tx:              params.Tx,
		tenants:         params.Tenants,
		cache:           cache,
		metrics:         params.Metrics,
		logg:            params.Logger,
		defaultCurrency: currency,
		previewAmounts:  amounts,
	}, nil
}

func (s *service) CreateSchedule(ctx context.Context, tenantID uuid.UUID, input CreateScheduleInput) (*Schedule, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if err := validationFailure(ValidateTiers(input.Tiers)); err != nil {
		return nil, err
	}
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	row := &models.FeeSchedule{
		ID:       uuid.New(),
		TenantID: tenantID,
		Method:   input.Method,
		Enabled:  enabled,
		Currency: currency,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindScheduleByMethod(ctx, tenantID, input.Method)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee schedule")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment method already has a fee schedule")
		}
		if err := repo.CreateSchedule(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "payment method already has a fee schedule")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fee schedule")
		}
		if err := repo.ReplaceTiers(ctx, row.ID, toTierModels(input.Tiers, nil)); err != nil {
			return tierWriteFailure(err, "create fee tiers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndCache(ctx, tenantID, row.ID, input.Method)
}

func (s *service) GetSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) (*Schedule, error) {
	row, err := s.loadSchedule(ctx, s.repo, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	schedule := toSchedule(*row)
	return &schedule, nil
}

func (s *service) ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]Schedule, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	rows, err := s.repo.ListSchedules(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fee schedules")
	}
	out := make([]Schedule, len(rows))
	for i, row := range rows {
		out[i] = toSchedule(row)
	}
	return out, nil
}

// ReplaceTiers swaps the whole tier list of a schedule. The stored order is
// the order of tiers, which is also the evaluation order.
func (s *service) ReplaceTiers(ctx context.Context, tenantID, scheduleID uuid.UUID, tiers []Tier) (*Schedule, error) {
	if err := validationFailure(ValidateTiers(tiers)); err != nil {
		return nil, err
	}

	var method enums.PaymentMethod
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.loadSchedule(ctx, repo, tenantID, scheduleID)
		if err != nil {
			return err
		}
		method = row.Method
		if err := repo.ReplaceTiers(ctx, row.ID, toTierModels(tiers, tierIDs(row.Tiers))); err != nil {
			return tierWriteFailure(err, "replace fee tiers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndCache(ctx, tenantID, scheduleID, method)
}

func (s *service) SetEnabled(ctx context.Context, tenantID, scheduleID uuid.UUID, enabled bool) (*Schedule, error) {
	row, err := s.loadSchedule(ctx, s.repo, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	if row.Enabled == enabled {
		schedule := toSchedule(*row)
		return &schedule, nil
	}
	if err := s.repo.SetEnabled(ctx, row.ID, enabled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fee schedule")
	}
	return s.reloadAndCache(ctx, tenantID, row.ID, row.Method)
}

func (s *service) DeleteSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) error {
	var method enums.PaymentMethod
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.loadSchedule(ctx, repo, tenantID, scheduleID)
		if err != nil {
			return err
		}
		method = row.Method
		if err := repo.DeleteSchedule(ctx, row.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete fee schedule")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.cache.bury(ctx, tenantID, method); err != nil {
		s.warn(ctx, "fee schedule cache write failed", err)
		s.invalidate(ctx, tenantID, method)
	}
	return nil
}

// PreviewSchedule evaluates the stored tiers whether or not the schedule is enabled.
func (s *service) PreviewSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID, amounts []decimal.Decimal) (*PreviewResult, error) {
	schedule, err := s.GetSchedule(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	result, err := s.PreviewTiers(ctx, schedule.Tiers, amounts)
	if err != nil {
		return nil, err
	}
	result.ScheduleID = &schedule.ID
	result.Method = schedule.Method
	result.Currency = schedule.Currency
	result.Enabled = schedule.Enabled
	return result, nil
}

// PreviewTiers evaluates unsaved tiers. Invalid tiers are still evaluated and
// their issues returned alongside the rows.
func (s *service) PreviewTiers(_ context.Context, tiers []Tier, amounts []decimal.Decimal) (*PreviewResult, error) {
	if len(amounts) == 0 {
		amounts = s.previewAmounts
	}
	if len(amounts) > maxPreviewAmounts {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d preview amounts are allowed", maxPreviewAmounts))
	}
	result := &PreviewResult{
		Currency: s.defaultCurrency,
		Enabled:  true,
		Rows:     Preview(tiers, amounts),
		Gaps:     FindGaps(tiers),
	}
	var verr *ValidationError
	if errors.As(ValidateTiers(tiers), &verr) {
		result.Issues = verr.Issues
	}
	if result.Gaps == nil {
		result.Gaps = []Gap{}
	}
	return result, nil
}

// Quote computes the fee for a real transaction. Only enabled schedules quote.
func (s *service) Quote(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*Quote, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuote(method.String(), time.Since(start)) }()

	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	schedule, err := s.scheduleForQuote(ctx, tenantID, method)
	if err != nil {
		return nil, err
	}

	breakdown, err := schedule.Evaluate(amount)
	if errors.Is(err, ErrScheduleDisabled) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "fee schedule is disabled")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "evaluate fee schedule")
	}
	s.metrics.ObserveEvaluation(method.String(), breakdown.Matched)

	return &Quote{
		TenantID:   tenantID,
		ScheduleID: schedule.ID,
		Method:     method,
		Currency:   schedule.Currency,
		Breakdown:  breakdown,
	}, nil
}

func (s *service) scheduleForQuote(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) (*Schedule, error) {
	if s.cache.enabled() {
		cached, found, err := s.cache.get(ctx, tenantID, method)
		switch {
		case err != nil:
			s.metrics.ObserveCache(metrics.CacheError)
			s.warn(ctx, "fee schedule cache read failed", err)
		case found:
			s.metrics.ObserveCache(metrics.CacheHit)
			if cached == nil {
				return nil, errNoScheduleForMethod()
			}
			return cached, nil
		default:
			s.metrics.ObserveCache(metrics.CacheMiss)
		}
	}

	// The row may be stale by the time it is cached, so a miss is only ever
	// filled into an empty key. Writers overwrite after commit.
	row, err := s.repo.FindScheduleByMethod(ctx, tenantID, method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee schedule")
	}
	if row == nil {
		if err := s.cache.fillTombstone(ctx, tenantID, method); err != nil {
			s.warn(ctx, "fee schedule cache write failed", err)
		}
		return nil, errNoScheduleForMethod()
	}
	schedule := toSchedule(*row)
	if err := s.cache.fill(ctx, schedule); err != nil {
		s.warn(ctx, "fee schedule cache write failed", err)
	}
	return &schedule, nil
}

func errNoScheduleForMethod() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no fee schedule for payment method")
}

// reloadAndCache reads the committed schedule and overwrites its cache entry.
// When either step fails the entry is dropped instead.
func (s *service) reloadAndCache(ctx context.Context, tenantID, scheduleID uuid.UUID, method enums.PaymentMethod) (*Schedule, error) {
	schedule, err := s.GetSchedule(ctx, tenantID, scheduleID)
	if err != nil {
		s.invalidate(ctx, tenantID, method)
		return nil, err
	}
	if err := s.cache.put(ctx, *schedule); err != nil {
		s.warn(ctx, "fee schedule cache write failed", err)
		s.invalidate(ctx, tenantID, method)
	}
	return schedule, nil
}

func (s *service) loadSchedule(ctx context.Context, repo Repository, tenantID, scheduleID uuid.UUID) (*models.FeeSchedule, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if scheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id is required")
	}
	row, err := repo.FindSchedule(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee schedule")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee schedule not found")
	}
	return row, nil
}

func (s *service) requireTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}
	if tenant == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) {
	if err := s.cache.invalidate(ctx, tenantID, method); err != nil {
		s.warn(ctx, "fee schedule cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func validationFailure(err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee tiers").WithDetails(verr.Issues)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee tiers")
}

func toSchedule(row models.FeeSchedule) Schedule {
	tiers := make([]Tier, len(row.Tiers))
	for i, t := range row.Tiers {
		tiers[i] = Tier{
			ID:            t.ID.String(),
			MinAmount:     t.MinAmount,
			FixedFee:      t.FixedFee,
			PercentageFee: t.PercentageFee,
		}
		if t.MaxAmount.Valid {
			upper := t.MaxAmount.Decimal
			tiers[i].MaxAmount = &upper
		}
	}
	return Schedule{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Method:    row.Method,
		Enabled:   row.Enabled,
		Currency:  row.Currency,
		Tiers:     tiers,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func tierWriteFailure(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tier id already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func tierIDs(tiers []models.FeeTier) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(tiers))
	for _, t := range tiers {
		out[t.ID] = true
	}
	return out
}

// toTierModels keeps a caller supplied id only when it already belongs to the
// schedule (owned) and appears once in tiers. Every other tier gets a new id.
func toTierModels(tiers []Tier, owned map[uuid.UUID]bool) []models.FeeTier {
	out := make([]models.FeeTier, len(tiers))
	used := make(map[uuid.UUID]bool, len(tiers))
	for i, t := range tiers {
		id, err := uuid.Parse(strings.TrimSpace(t.ID))
		if err != nil || !owned[id] || used[id] {
			id = uuid.New()
		}
		used[id] = true
		out[i] = models.FeeTier{
			ID:            id,
			Position:      i,
			MinAmount:     t.MinAmount,
			FixedFee:      t.FixedFee,
			PercentageFee: t.PercentageFee,
		}
		if t.MaxAmount != nil {
			out[i].MaxAmount = decimal.NewNullDecimal(*t.MaxAmount)
		}
	}
	return out
}
