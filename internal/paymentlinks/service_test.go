package paymentlinks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	pkgpagination "github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setupLinksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.Exec(`
CREATE TABLE payment_links (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE,
  method TEXT NOT NULL,
  currency TEXT NOT NULL,
  amount TEXT NOT NULL,
  fee TEXT NOT NULL DEFAULT '0',
  net TEXT NOT NULL DEFAULT '0',
  description TEXT NOT NULL DEFAULT '',
  customer_email TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return conn
}

type stubTenants struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (s *stubTenants) FindByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenants[id], nil
}

type stubQuoter struct {
	calls int
	err   error
}

// Quote charges a flat 2 plus 1.5% so tests can assert the stored breakdown.
func (s *stubQuoter) Quote(_ context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*fees.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	fee := decimal.RequireFromString("2").Add(amount.Mul(decimal.RequireFromString("0.015")))
	return &fees.Quote{
		TenantID: tenantID,
		Method:   method,
		Currency: enums.CurrencyINR,
		Breakdown: fees.Breakdown{
			Amount:  amount,
			Fee:     fee,
			Net:     amount.Sub(fee),
			Matched: true,
		},
	}, nil
}

type linksFixture struct {
	db       *gorm.DB
	repo     Repository
	svc      *service
	quoter   *stubQuoter
	tenantID uuid.UUID
	now      time.Time
}

func newLinksFixture(t *testing.T) *linksFixture {
	t.Helper()
	conn := setupLinksTestDB(t)
	tenantID := uuid.New()
	f := &linksFixture{
		db:       conn,
		repo:     NewRepository(conn),
		quoter:   &stubQuoter{},
		tenantID: tenantID,
		now:      testNow,
	}
	tenants := &stubTenants{tenants: map[uuid.UUID]*models.Tenant{
		tenantID: {ID: tenantID, Name: "Acme", Status: enums.TenantStatusActive},
	}}
	svc, err := NewService(ServiceParams{
		Repo:      f.repo,
		Tenants:   tenants,
		Fees:      f.quoter,
		BaseURL:   "https://pay.example.com/l/",
		MaxExpiry: 90 * 24 * time.Hour,
		Clock:     func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc.(*service)
	return f
}

func (f *linksFixture) create(t *testing.T, input CreateLinkInput) *LinkDTO {
	t.Helper()
	link, err := f.svc.Create(context.Background(), f.tenantID, input)
	require.NoError(t, err)
	return link
}

func TestCreateStoresQuotedBreakdown(t *testing.T) {
	f := newLinksFixture(t)

	link := f.create(t, CreateLinkInput{
		Method:        enums.PaymentMethodUPI,
		Amount:        decimal.RequireFromString("1000"),
		Description:   "  March invoice ",
		CustomerEmail: "Buyer@Example.com",
		Expiry:        enums.LinkExpiryOneWeek,
	})

	assert.Equal(t, 1, f.quoter.calls)
	assert.Equal(t, enums.PaymentLinkStatusActive, link.Status)
	assert.Equal(t, "17", link.Fee.String())
	assert.Equal(t, "983", link.Net.String())
	assert.Equal(t, Display{Amount: "1000.00", Fee: "17.00", Net: "983.00"}, link.Display)
	assert.Equal(t, "March invoice", link.Description)
	require.NotNil(t, link.CustomerEmail)
	assert.Equal(t, "buyer@example.com", *link.CustomerEmail)
	assert.True(t, testNow.AddDate(0, 0, 7).Equal(link.ExpiresAt))
	assert.Equal(t, "https://pay.example.com/l/"+link.Code, link.URL)

	stored, err := f.repo.FindByCode(context.Background(), link.Code)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, link.ID, stored.ID)
	assert.True(t, stored.Fee.Equal(decimal.RequireFromString("17")))
}

func TestCreateValidatesInput(t *testing.T) {
	f := newLinksFixture(t)
	past := testNow.Add(-time.Hour)

	cases := map[string]CreateLinkInput{
		"method":   {Method: "cheque", Amount: decimal.NewFromInt(10)},
		"zero":     {Method: enums.PaymentMethodCard, Amount: decimal.Zero},
		"negative": {Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(-5)},
		"email":    {Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), CustomerEmail: "not-an-email"},
		"expiry":   {Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryCustom, ExpiresAt: &past},
	}
	for name, input := range cases {
		_, err := f.svc.Create(context.Background(), f.tenantID, input)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
	assert.Zero(t, f.quoter.calls)
}

func TestCreateCountsDescriptionInCharacters(t *testing.T) {
	f := newLinksFixture(t)

	link := f.create(t, CreateLinkInput{
		Method:      enums.PaymentMethodCard,
		Amount:      decimal.NewFromInt(10),
		Description: strings.Repeat("é", maxDescriptionLength),
	})
	assert.Equal(t, strings.Repeat("é", maxDescriptionLength), link.Description)

	_, err := f.svc.Create(context.Background(), f.tenantID, CreateLinkInput{
		Method:      enums.PaymentMethodCard,
		Amount:      decimal.NewFromInt(10),
		Description: strings.Repeat("é", maxDescriptionLength+1),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Equal(t, 1, f.quoter.calls)
}

func TestCreateRejectsUnknownAndSuspendedTenants(t *testing.T) {
	f := newLinksFixture(t)
	input := CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10)}

	_, err := f.svc.Create(context.Background(), uuid.New(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	suspended := uuid.New()
	f.svc.tenants.(*stubTenants).tenants[suspended] = &models.Tenant{ID: suspended, Status: enums.TenantStatusSuspended}
	_, err = f.svc.Create(context.Background(), suspended, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, f.quoter.calls)
}

func TestCreatePropagatesQuoteErrors(t *testing.T) {
	f := newLinksFixture(t)
	f.quoter.err = pkgerrors.New(pkgerrors.CodeStateConflict, "fee schedule is disabled")

	_, err := f.svc.Create(context.Background(), f.tenantID, CreateLinkInput{
		Method: enums.PaymentMethodCard,
		Amount: decimal.NewFromInt(10),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	f := newLinksFixture(t)
	codes := []string{"aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	f.svc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	input := CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10)}

	first := f.create(t, input)
	second := f.create(t, input)

	assert.Equal(t, "aaaaaaaa", first.Code)
	assert.Equal(t, "bbbbbbbb", second.Code)
	assert.Empty(t, codes)
}

func TestListUsesEffectiveStatus(t *testing.T) {
	f := newLinksFixture(t)
	input := CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryOneHour}

	short := f.create(t, input)
	f.now = testNow.Add(time.Minute)
	input.Expiry = enums.LinkExpiryOneWeek
	long := f.create(t, input)

	f.now = testNow.Add(2 * time.Hour)
	ctx := context.Background()

	expired, err := f.svc.List(ctx, ListParams{TenantID: f.tenantID, Status: enums.PaymentLinkStatusExpired})
	require.NoError(t, err)
	require.Len(t, expired.Items, 1)
	assert.Equal(t, short.ID, expired.Items[0].ID)
	assert.Equal(t, enums.PaymentLinkStatusExpired, expired.Items[0].Status)

	active, err := f.svc.List(ctx, ListParams{TenantID: f.tenantID, Status: enums.PaymentLinkStatusActive})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, long.ID, active.Items[0].ID)

	all, err := f.svc.List(ctx, ListParams{TenantID: f.tenantID, Params: pkgpagination.Params{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.NotEmpty(t, all.NextCursor)

	_, err = f.svc.List(ctx, ListParams{TenantID: f.tenantID, Status: "pending"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCancel(t *testing.T) {
	f := newLinksFixture(t)
	ctx := context.Background()
	link := f.create(t, CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryOneHour})

	cancelled, err := f.svc.Cancel(ctx, f.tenantID, link.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentLinkStatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, f.tenantID, link.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Cancel(ctx, f.tenantID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	other := f.create(t, CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryOneHour})
	f.now = testNow.Add(time.Hour)
	_, err = f.svc.Cancel(ctx, f.tenantID, other.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestExpireDue(t *testing.T) {
	f := newLinksFixture(t)
	ctx := context.Background()
	short := f.create(t, CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryOneHour})
	long := f.create(t, CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10), Expiry: enums.LinkExpiryOneDay})

	count, err := f.svc.ExpireDue(ctx, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := f.repo.FindByID(ctx, f.tenantID, short.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentLinkStatusExpired, stored.Status)

	stored, err = f.repo.FindByID(ctx, f.tenantID, long.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentLinkStatusActive, stored.Status)

	count, err = f.svc.ExpireDue(ctx, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPurgeClosedKeepsPaidAndActive(t *testing.T) {
	f := newLinksFixture(t)
	ctx := context.Background()
	input := CreateLinkInput{Method: enums.PaymentMethodCard, Amount: decimal.NewFromInt(10)}
	cancelled := f.create(t, input)
	paid := f.create(t, input)
	active := f.create(t, input)

	_, err := f.svc.Cancel(ctx, f.tenantID, cancelled.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Exec("UPDATE payment_links SET status = ? WHERE id = ?", enums.PaymentLinkStatusPaid, paid.ID).Error)

	count, err := f.svc.PurgeClosed(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	for _, id := range []uuid.UUID{paid.ID, active.ID} {
		stored, err := f.repo.FindByID(ctx, f.tenantID, id)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	}
	gone, err := f.repo.FindByID(ctx, f.tenantID, cancelled.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
