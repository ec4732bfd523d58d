package main

import (
	"context"
	"fmt"
	"time"

	"landlords/internal/logger"

	"github.com/robfig/cron/v3"
)

// scheduleJobs registers the recurring levy and delivery jobs. Each run gets its own timeout.
func scheduleJobs(a *app) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"levy reconciliation", a.cfg.Jobs.ReconcileSpec, func(ctx context.Context) error {
			report, err := a.svc.Levy.Reconcile(ctx)
			if err == nil && report.Checked > 0 {
				logger.Logger.WithFields(map[string]interface{}{
					"checked": report.Checked,
					"applied": report.Applied,
					"skipped": report.Skipped,
				}).Info("levy reconciliation finished")
			}
			return err
		}},
		{"announcement delivery retry", a.cfg.Jobs.DeliveryRetrySpec, func(ctx context.Context) error {
			report, err := a.svc.Announcement.RetryFailed(ctx, a.cfg.Mail.MaxAttempts)
			if err == nil && report.Attempted > 0 {
				logger.Logger.WithFields(map[string]interface{}{
					"attempted": report.Attempted,
					"sent":      report.Sent,
					"failed":    report.Failed,
				}).Info("announcement delivery retry finished")
			}
			return err
		}},
		{"levy expiry reminder", a.cfg.Jobs.ExpiryReminder, func(ctx context.Context) error {
			n, err := a.svc.Levy.RemindExpiring(ctx)
			if err == nil && n > 0 {
				logger.Logger.Infof("sent %d levy expiry reminders", n)
			}
			return err
		}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		j := j
		_, err := c.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Jobs.JobTimeout)
			defer cancel()
			if err := j.run(ctx); err != nil {
				logger.Logger.WithError(err).Errorf("%s failed", j.name)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	return c, nil
}
