package tenants

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// TenantDTO exposes tenant data in API responses.
type TenantDTO struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Plan      enums.TenantPlan   `json:"plan"`
	Status    enums.TenantStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CreateTenantInput holds creation-time data for a new tenant.
type CreateTenantInput struct {
	Name  string
	Email string
	Plan  enums.TenantPlan
}

// FromModel maps the persisted tenant into a DTO.
func FromModel(m *models.Tenant) *TenantDTO {
	if m == nil {
		return nil
	}
	return &TenantDTO{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Plan:      m.Plan,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
