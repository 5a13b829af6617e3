package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/api/controllers"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// quoteOnlyFees answers Quote and PreviewTiers; the router tests only need routing.
type quoteOnlyFees struct {
	fees.Service
	tenantID uuid.UUID
}

func (q *quoteOnlyFees) Quote(_ context.Context, tenantID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) (*fees.Quote, error) {
	q.tenantID = tenantID
	return &fees.Quote{TenantID: tenantID, Method: method, Breakdown: fees.Breakdown{Amount: amount, Net: amount, TierIndex: -1}}, nil
}

func (q *quoteOnlyFees) PreviewTiers(_ context.Context, tiers []fees.Tier, amounts []decimal.Decimal) (*fees.PreviewResult, error) {
	return &fees.PreviewResult{Rows: fees.Preview(tiers, amounts)}, nil
}

func newTestRouter(t *testing.T, feeSvc fees.Service) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "dev"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	handler := NewRouter(cfg, logger.New(logger.Options{ServiceName: "router-test"}), Services{
		Fees:        feeSvc,
		Readiness:   map[string]controllers.Pinger{"db": okPinger{}},
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	})
	return handler, reg
}

func TestRouterHealthAndMetrics(t *testing.T) {
	handler, _ := newTestRouter(t, &quoteOnlyFees{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing request id", path)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invoicedesk_http_requests_total") {
		t.Fatalf("expected http metrics in scrape output")
	}
}

func TestRouterTenantScopedQuote(t *testing.T) {
	feeSvc := &quoteOnlyFees{}
	handler, _ := newTestRouter(t, feeSvc)
	tenantID := uuid.New()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/"+tenantID.String()+"/fees/quote", bytes.NewReader([]byte(`{"method":"card","amount":"25"}`)))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if feeSvc.tenantID != tenantID {
		t.Fatalf("expected tenant %s, got %s", tenantID, feeSvc.tenantID)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tenants/not-a-uuid/fees/quote", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed tenant id got %d", rec.Code)
	}
}

func TestRouterStatelessPreview(t *testing.T) {
	handler, _ := newTestRouter(t, &quoteOnlyFees{})
	rec := httptest.NewRecorder()
	body := []byte(`{"tiers":[{"min_amount":"0","fixed_fee":"1"}],"amounts":["10"]}`)
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/fees/preview", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
