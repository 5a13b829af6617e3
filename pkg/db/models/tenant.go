package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Tenant is a business billing its own customers through the portal.
type Tenant struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string             `gorm:"column:name;not null"`
	Email     string             `gorm:"column:email;not null;uniqueIndex"`
	Plan      enums.TenantPlan   `gorm:"column:plan;not null;default:'starter'"`
	Status    enums.TenantStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string { return "tenants" }
