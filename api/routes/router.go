package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/invoicedesk-backend/api/controllers"
	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/internal/gateways"
	"github.com/angelmondragon/invoicedesk-backend/internal/paymentlinks"
	"github.com/angelmondragon/invoicedesk-backend/internal/tenants"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
)

// Services bundles what the router serves. Gatherer backs /metrics and may be nil.
type Services struct {
	Fees         fees.Service
	Tenants      tenants.Service
	Gateways     gateways.Service
	PaymentLinks paymentlinks.Service
	Readiness    map[string]controllers.Pinger
	HTTPMetrics  *metrics.HTTPMetrics
	Gatherer     prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(svc.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Readiness))
	})
	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fees/preview", controllers.FeePreview(svc.Fees, logg))

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", controllers.TenantList(svc.Tenants, logg))
			r.Post("/", controllers.TenantCreate(svc.Tenants, logg))

			r.Route("/{tenantId}", func(r chi.Router) {
				r.Use(middleware.TenantContext(logg))
				r.Get("/", controllers.TenantGet(svc.Tenants, logg))
				r.Delete("/", controllers.TenantDelete(svc.Tenants, logg))
				r.Patch("/status", controllers.TenantUpdateStatus(svc.Tenants, logg))

				r.Post("/fees/quote", controllers.FeeQuote(svc.Fees, logg))
				r.Route("/fee-schedules", func(r chi.Router) {
					r.Get("/", controllers.FeeScheduleList(svc.Fees, logg))
					r.Post("/", controllers.FeeScheduleCreate(svc.Fees, logg))
					r.Get("/{scheduleId}", controllers.FeeScheduleGet(svc.Fees, logg))
					r.Delete("/{scheduleId}", controllers.FeeScheduleDelete(svc.Fees, logg))
					r.Put("/{scheduleId}/tiers", controllers.FeeScheduleReplaceTiers(svc.Fees, logg))
					r.Patch("/{scheduleId}/enabled", controllers.FeeScheduleSetEnabled(svc.Fees, logg))
					r.Post("/{scheduleId}/preview", controllers.FeeSchedulePreview(svc.Fees, logg))
				})

				r.Route("/gateways", func(r chi.Router) {
					r.Get("/", controllers.GatewayList(svc.Gateways, logg))
					r.Put("/", controllers.GatewayUpsert(svc.Gateways, logg))
					r.Delete("/{kind}", controllers.GatewayDelete(svc.Gateways, logg))
				})

				r.Route("/payment-links", func(r chi.Router) {
					r.Get("/", controllers.PaymentLinkList(svc.PaymentLinks, logg))
					r.Post("/", controllers.PaymentLinkCreate(svc.PaymentLinks, logg))
					r.Get("/{linkId}", controllers.PaymentLinkGet(svc.PaymentLinks, logg))
					r.Post("/{linkId}/cancel", controllers.PaymentLinkCancel(svc.PaymentLinks, logg))
				})
			})
		})
	})

	return r
}
