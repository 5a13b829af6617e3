package gateways

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Repository persists per-tenant gateway configs.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]models.GatewayConfig, error)
	FindByKind(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) (*models.GatewayConfig, error)
	Upsert(ctx context.Context, row *models.GatewayConfig) error
	Delete(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) (bool, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]models.GatewayConfig, error) {
	var rows []models.GatewayConfig
	if err := r.DB(ctx).Where("tenant_id = ?", tenantID).Order("kind ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByKind returns nil, nil when the tenant has not configured kind.
func (r *repository) FindByKind(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) (*models.GatewayConfig, error) {
	return repo.FirstOrNil[models.GatewayConfig](r.DB(ctx).Where("tenant_id = ? AND kind = ?", tenantID, kind))
}

// Upsert inserts the row or overwrites enabled/config of the existing
// (tenant, kind) row.
func (r *repository) Upsert(ctx context.Context, row *models.GatewayConfig) error {
	row.UpdatedAt = time.Now().UTC()
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "config", "updated_at"}),
	}).Create(row).Error
}

func (r *repository) Delete(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) (bool, error) {
	res := r.DB(ctx).Where("tenant_id = ? AND kind = ?", tenantID, kind).Delete(&models.GatewayConfig{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
