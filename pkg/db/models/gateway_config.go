package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/invoicedesk-backend/pkg/db/types"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// GatewayConfig stores one gateway integration per tenant. Config holds the
// JSON encoding of the typed record that matches Kind.
type GatewayConfig struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_gateway_configs_tenant_kind"`
	Kind      enums.GatewayKind    `gorm:"column:kind;not null;uniqueIndex:idx_gateway_configs_tenant_kind"`
	Enabled   bool                 `gorm:"column:enabled;not null"`
	Config    dbtypes.JSONDocument `gorm:"column:config;type:jsonb;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (GatewayConfig) TableName() string { return "gateway_configs" }
