package tenants

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Repository persists tenants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*models.Tenant, error)
	List(ctx context.Context, opts listQuery) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TenantStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository constructs a tenant repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.DB(ctx).Create(tenant).Error
}

// FindByID returns nil, nil when the tenant does not exist.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return repo.FirstOrNil[models.Tenant](r.DB(ctx).Where("id = ?", id))
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return repo.FirstOrNil[models.Tenant](r.DB(ctx).Where("LOWER(email) = ?", strings.ToLower(email)))
}

// List returns tenants newest first using cursor pagination.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Tenant, error) {
	query := r.DB(ctx).Model(&models.Tenant{})

	if opts.search != "" {
		pattern := "%" + escapeLike(strings.ToLower(opts.search)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.plan != "" {
		query = query.Where("plan = ?", opts.plan)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	var rows []models.Tenant
	if err := query.Order("created_at DESC").Order("id DESC").Limit(opts.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TenantStatus) error {
	return r.DB(ctx).Model(&models.Tenant{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes the tenant and everything it owns. Callers run it inside a
// transaction; rows are deleted explicitly so sqlite needs no foreign keys.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	schedules := db.Session(&gorm.Session{NewDB: true}).Model(&models.FeeSchedule{}).Select("id").Where("tenant_id = ?", id)

	steps := []func() error{
		func() error { return db.Where("tenant_id = ?", id).Delete(&models.PaymentLink{}).Error },
		func() error { return db.Where("tenant_id = ?", id).Delete(&models.GatewayConfig{}).Error },
		func() error { return db.Where("schedule_id IN (?)", schedules).Delete(&models.FeeTier{}).Error },
		func() error { return db.Where("tenant_id = ?", id).Delete(&models.FeeSchedule{}).Error },
		func() error { return db.Where("id = ?", id).Delete(&models.Tenant{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
