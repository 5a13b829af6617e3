package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

type paymentLinkSweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	PurgeClosed(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentLinkExpiryJobParams configure the payment link sweep. A zero
// Retention disables purging.
type PaymentLinkExpiryJobParams struct {
	Logger    *logger.Logger
	Links     paymentLinkSweeper
	Retention time.Duration
}

func NewPaymentLinkExpiryJob(params PaymentLinkExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Links == nil {
		return nil, fmt.Errorf("payment link service required")
	}
	return &paymentLinkExpiryJob{
		logg:      params.Logger,
		links:     params.Links,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

type paymentLinkExpiryJob struct {
	logg      *logger.Logger
	links     paymentLinkSweeper
	retention time.Duration
	now       func() time.Time
}

func (j *paymentLinkExpiryJob) Name() string { return "payment-link-expiry" }

func (j *paymentLinkExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error

	expired, err := j.links.ExpireDue(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("expire payment links: %w", err))
	}

	var purged int64
	if j.retention > 0 {
		cutoff := now.Add(-j.retention)
		purged, err = j.links.PurgeClosed(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge payment links: %w", err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": expired,
		"purged":  purged,
	})
	j.logg.Info(logCtx, "payment link sweep complete")
	return errs
}
