package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/invoicedesk-backend/internal/cron"
	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/internal/paymentlinks"
	"github.com/angelmondragon/invoicedesk-backend/internal/tenants"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/instance"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/invoicedesk-backend/pkg/migrate"
	"github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	tenantRepo := tenants.NewRepository(dbClient.DB())
	feeService, err := fees.NewService(fees.ServiceParams{
		Repo:     fees.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Tenants:  tenantRepo,
		Cache:    redisClient,
		CacheTTL: cfg.Fees.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fee service", err)
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

	expiryJob, err := cron.NewPaymentLinkExpiryJob(cron.PaymentLinkExpiryJobParams{
		Logger:    logg,
		Links:     linkService,
		Retention: cfg.PaymentLinks.Retention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment link expiry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron", cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID("worker-0"),
		"interval": cfg.Cron.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		service.RunOnce(ctx)
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
