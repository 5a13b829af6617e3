package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// FeeSchedule is the ordered tier list one tenant applies to one payment method.
type FeeSchedule struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_fee_schedules_tenant_method"`
	Method    enums.PaymentMethod `gorm:"column:method;not null;uniqueIndex:idx_fee_schedules_tenant_method"`
	Enabled   bool                `gorm:"column:enabled;not null"`
	Currency  enums.Currency      `gorm:"column:currency;not null;default:'INR'"`
	Tiers     []FeeTier           `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (FeeSchedule) TableName() string { return "fee_schedules" }

// FeeTier is a single amount range of a schedule. Position keeps the order the
// administrator entered; evaluation scans tiers by ascending position.
type FeeTier struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ScheduleID    uuid.UUID           `gorm:"column:schedule_id;type:uuid;not null;index"`
	Position      int                 `gorm:"column:position;not null"`
	MinAmount     decimal.Decimal     `gorm:"column:min_amount;type:numeric;not null"`
	MaxAmount     decimal.NullDecimal `gorm:"column:max_amount;type:numeric"`
	FixedFee      decimal.Decimal     `gorm:"column:fixed_fee;type:numeric;not null;default:0"`
	PercentageFee decimal.Decimal     `gorm:"column:percentage_fee;type:numeric;not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (FeeTier) TableName() string { return "fee_tiers" }
