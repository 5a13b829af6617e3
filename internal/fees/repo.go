package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Repository persists fee schedules and their tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSchedule(ctx context.Context, schedule *models.FeeSchedule) error
	FindSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) (*models.FeeSchedule, error)
	FindScheduleByMethod(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) (*models.FeeSchedule, error)
	ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]models.FeeSchedule, error)
	ReplaceTiers(ctx context.Context, scheduleID uuid.UUID, tiers []models.FeeTier) error
	SetEnabled(ctx context.Context, scheduleID uuid.UUID, enabled bool) error
	DeleteSchedule(ctx context.Context, scheduleID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a fee schedule repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateSchedule(ctx context.Context, schedule *models.FeeSchedule) error {
	return r.DB(ctx).Create(schedule).Error
}

func orderedTiers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindSchedule returns nil, nil when the schedule does not exist for the tenant.
func (r *repository) FindSchedule(ctx context.Context, tenantID, scheduleID uuid.UUID) (*models.FeeSchedule, error) {
	return repo.FirstOrNil[models.FeeSchedule](
		r.DB(ctx).Preload("Tiers", orderedTiers).
			Where("tenant_id = ? AND id = ?", tenantID, scheduleID),
	)
}

// FindScheduleByMethod returns nil, nil when the tenant has no schedule for method.
func (r *repository) FindScheduleByMethod(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) (*models.FeeSchedule, error) {
	return repo.FirstOrNil[models.FeeSchedule](
		r.DB(ctx).Preload("Tiers", orderedTiers).
			Where("tenant_id = ? AND method = ?", tenantID, method),
	)
}

func (r *repository) ListSchedules(ctx context.Context, tenantID uuid.UUID) ([]models.FeeSchedule, error) {
	var rows []models.FeeSchedule
	err := r.DB(ctx).
		Preload("Tiers", orderedTiers).
		Where("tenant_id = ?", tenantID).
		Order("method ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceTiers deletes every tier of the schedule and inserts tiers in order.
// Callers run it inside a transaction.
func (r *repository) ReplaceTiers(ctx context.Context, scheduleID uuid.UUID, tiers []models.FeeTier) error {
	db := r.DB(ctx)
	if err := db.Where("schedule_id = ?", scheduleID).Delete(&models.FeeTier{}).Error; err != nil {
		return err
	}
	if len(tiers) > 0 {
		for i := range tiers {
			if tiers[i].ID == uuid.Nil {
				tiers[i].ID = uuid.New()
			}
			tiers[i].ScheduleID = scheduleID
			tiers[i].Position = i
		}
		if err := db.Create(&tiers).Error; err != nil {
			return err
		}
	}
	return db.Model(&models.FeeSchedule{}).Where("id = ?", scheduleID).Update("updated_at", time.Now().UTC()).Error
}

func (r *repository) SetEnabled(ctx context.Context, scheduleID uuid.UUID, enabled bool) error {
	return r.DB(ctx).Model(&models.FeeSchedule{}).
		Where("id = ?", scheduleID).
		Update("enabled", enabled).Error
}

// DeleteSchedule removes the tiers explicitly so the cascade does not depend on
// the driver enforcing foreign keys.
func (r *repository) DeleteSchedule(ctx context.Context, scheduleID uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("schedule_id = ?", scheduleID).Delete(&models.FeeTier{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", scheduleID).Delete(&models.FeeSchedule{}).Error
}
