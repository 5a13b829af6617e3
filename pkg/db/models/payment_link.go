package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// PaymentLink is a shareable payment request. Fee and Net are captured from the
// tenant's fee schedule at creation time.
type PaymentLink struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	Code          string                  `gorm:"column:code;not null;uniqueIndex"`
	Method        enums.PaymentMethod     `gorm:"column:method;not null"`
	Currency      enums.Currency          `gorm:"column:currency;not null"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric;not null"`
	Fee           decimal.Decimal         `gorm:"column:fee;type:numeric;not null"`
	Net           decimal.Decimal         `gorm:"column:net;type:numeric;not null"`
	Description   string                  `gorm:"column:description;not null;default:''"`
	CustomerEmail *string                 `gorm:"column:customer_email"`
	Status        enums.PaymentLinkStatus `gorm:"column:status;not null;default:'active'"`
	ExpiresAt     time.Time               `gorm:"column:expires_at;not null;index"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentLink) TableName() string { return "payment_links" }
