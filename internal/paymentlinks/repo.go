package paymentlinks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

// Repository persists payment links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, link *models.PaymentLink) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PaymentLink, error)
	FindByCode(ctx context.Context, code string) (*models.PaymentLink, error)
	List(ctx context.Context, opts listQuery) ([]models.PaymentLink, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentLinkStatus) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	PurgeClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type listQuery struct {
	tenantID uuid.UUID
	status   enums.PaymentLinkStatus
	now      time.Time
	limit    int
	cursor   *pkgpagination.Cursor
}

type repository struct {
	repo.Base
}

// NewRepository constructs a payment link repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, link *models.PaymentLink) error {
	return r.DB(ctx).Create(link).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.PaymentLink, error) {
	return repo.FirstOrNil[models.PaymentLink](r.DB(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PaymentLink, error) {
	return repo.FirstOrNil[models.PaymentLink](r.DB(ctx).Where("code = ?", code))
}

// List returns a tenant's links newest first. Active and expired filters are
// evaluated against opts.now so unswept links are classified correctly.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.PaymentLink, error) {
	query := r.DB(ctx).Model(&models.PaymentLink{}).Where("tenant_id = ?", opts.tenantID)

	switch opts.status {
	case "":
	case enums.PaymentLinkStatusActive:
		query = query.Where("status = ? AND expires_at > ?", enums.PaymentLinkStatusActive, opts.now)
	case enums.PaymentLinkStatusExpired:
		query = query.Where("(status = ?) OR (status = ? AND expires_at <= ?)",
			enums.PaymentLinkStatusExpired, enums.PaymentLinkStatusActive, opts.now)
	default:
		query = query.Where("status = ?", opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	var rows []models.PaymentLink
	if err := query.Order("created_at DESC").Order("id DESC").Limit(opts.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a link from one status to another and reports whether a
// row changed. Rows no longer in from are left alone.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentLinkStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.PaymentLink{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireDue marks every active link whose expiry has passed as expired.
func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).Model(&models.PaymentLink{}).
		Where("status = ? AND expires_at <= ?", enums.PaymentLinkStatusActive, now).
		Updates(map[string]any{"status": enums.PaymentLinkStatusExpired, "updated_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// PurgeClosedBefore deletes expired and cancelled links last touched before
// cutoff. Paid links are kept.
func (r *repository) PurgeClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("status IN ? AND updated_at < ?", []enums.PaymentLinkStatus{enums.PaymentLinkStatusExpired, enums.PaymentLinkStatusCancelled}, cutoff).
		Delete(&models.PaymentLink{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
