package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/invoicedesk-backend/api/controllers"
	"github.com/angelmondragon/invoicedesk-backend/api/routes"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/internal/gateways"
	"github.com/angelmondragon/invoicedesk-backend/internal/paymentlinks"
	"github.com/angelmondragon/invoicedesk-backend/internal/tenants"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/instance"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/invoicedesk-backend/pkg/migrate"
	"github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	previewAmounts, err := cfg.Fees.Amounts()
	if err != nil {
		logg.Error(context.Background(), "invalid fee preview amounts", err)
		os.Exit(1)
	}
	currency, err := enums.ParseCurrency(cfg.Fees.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid default currency", err)
		os.Exit(1)
	}

	tenantRepo := tenants.NewRepository(dbClient.DB())
	tenantService, err := tenants.NewService(tenants.ServiceParams{
		Repo:     tenantRepo,
		Tx:       dbClient,
		Cache:    redisClient,
		CacheTTL: cfg.Fees.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant service", err)
		os.Exit(1)
	}

	feeService, err := fees.NewService(fees.ServiceParams{
		Repo:            fees.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Tenants:         tenantRepo,
		Cache:           redisClient,
		CacheTTL:        cfg.Fees.CacheTTL,
		Metrics:         metrics.NewFeeMetrics(registry),
		Logger:          logg,
		DefaultCurrency: currency,
		PreviewAmounts:  previewAmounts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fee service", err)
		os.Exit(1)
	}

	gatewayService, err := gateways.NewService(gateways.ServiceParams{
		Repo:    gateways.NewRepository(dbClient.DB()),
		Tenants: tenantRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway service", err)
		os.Exit(1)
	}

	linkService, err := paymentlinks.NewService(paymentlinks.ServiceParams{
		Repo:      paymentlinks.NewRepository(dbClient.DB()),
		Tenants:   tenantRepo,
		Fees:      feeService,
		BaseURL:   cfg.PaymentLinks.BaseURL,
		MaxExpiry: cfg.PaymentLinks.MaxExpiry,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment link service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("local"),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Fees:         feeService,
			Tenants:      tenantService,
			Gateways:     gatewayService,
			PaymentLinks: linkService,
			Readiness: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
