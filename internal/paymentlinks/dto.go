package paymentlinks

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
	"github.com/angelmondragon/invoicedesk-backend/pkg/types"
)

// CreateLinkInput collapses the payment link wizard into one request.
type CreateLinkInput struct {
	Method        enums.PaymentMethod
	Amount        decimal.Decimal
	Description   string
	CustomerEmail string
	Expiry        enums.LinkExpiry
	ExpiresAt     *time.Time
}

// ListParams filters a tenant's links. Status is matched against the
// effective status, so "expired" includes active links past their expiry.
type ListParams struct {
	TenantID uuid.UUID
	Status   enums.PaymentLinkStatus
	pkgpagination.Params
}

type ListResult = types.Page[LinkDTO]

// Display holds the two-decimal strings shown in the admin portal.
type Display struct {
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	Net    string `json:"net"`
}

// LinkDTO is the API view of a payment link.
type LinkDTO struct {
	ID            uuid.UUID               `json:"id"`
	TenantID      uuid.UUID               `json:"tenant_id"`
	Code          string                  `json:"code"`
	URL           string                  `json:"url"`
	Method        enums.PaymentMethod     `json:"method"`
	Currency      enums.Currency          `json:"currency"`
	Amount        decimal.Decimal         `json:"amount"`
	Fee           decimal.Decimal         `json:"fee"`
	Net           decimal.Decimal         `json:"net"`
	Display       Display                 `json:"display"`
	Description   string                  `json:"description"`
	CustomerEmail *string                 `json:"customer_email,omitempty"`
	Status        enums.PaymentLinkStatus `json:"status"`
	ExpiresAt     time.Time               `json:"expires_at"`
	CreatedAt     time.Time               `json:"created_at"`
}

// EffectiveStatus reports expired for active links whose expiry has passed.
func EffectiveStatus(link *models.PaymentLink, now time.Time) enums.PaymentLinkStatus {
	if link.Status == enums.PaymentLinkStatusActive && !link.ExpiresAt.After(now) {
		return enums.PaymentLinkStatusExpired
	}
	return link.Status
}

func toDTO(link *models.PaymentLink, baseURL string, now time.Time) *LinkDTO {
	return &LinkDTO{
		ID:       link.ID,
		TenantID: link.TenantID,
		Code:     link.Code,
		URL:      linkURL(baseURL, link.Code),
		Method:   link.Method,
		Currency: link.Currency,
		Amount:   link.Amount,
		Fee:      link.Fee,
		Net:      link.Net,
		Display: Display{
			Amount: link.Amount.StringFixed(2),
			Fee:    link.Fee.StringFixed(2),
			Net:    link.Net.StringFixed(2),
		},
		Description:   link.Description,
		CustomerEmail: link.CustomerEmail,
		Status:        EffectiveStatus(link, now),
		ExpiresAt:     link.ExpiresAt.UTC(),
		CreatedAt:     link.CreatedAt.UTC(),
	}
}

func linkURL(baseURL, code string) string {
	if baseURL == "" {
		return code
	}
	return strings.TrimRight(baseURL, "/") + "/" + code
}
