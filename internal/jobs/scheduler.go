// FILE: internal/jobs/scheduler.go
package jobs

import (
	"context"
	"time"

	"plugin-billing-be/internal/config"
	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/service"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic billing scans: renewals for subscriptions
// whose paid period ended, and overdue detection for unpaid billings.
type Scheduler struct {
	scheduler       gocron.Scheduler
	subscriptionSvc service.ISubscriptionService
	overdueSvc      service.IOverdueService
	cfg             config.BillingConfig
	log             logger.ILogger
}

func NewScheduler(
	subscriptionSvc service.ISubscriptionService,
	overdueSvc service.IOverdueService,
	cfg config.BillingConfig,
	log logger.ILogger,
) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &Scheduler{
		scheduler:       s,
		subscriptionSvc: subscriptionSvc,
		overdueSvc:      overdueSvc,
		cfg:             cfg,
		log:             log,
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *Scheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Duration(js.cfg.RenewalScanMinutes)*time.Minute),
		gocron.NewTask(js.runRenewalScan),
		gocron.WithName("subscription-renewal-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	_, err = js.scheduler.NewJob(
		gocron.DurationJob(time.Duration(js.cfg.OverdueScanMinutes)*time.Minute),
		gocron.NewTask(js.runOverdueScan),
		gocron.WithName("billing-overdue-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (js *Scheduler) Start() {
	js.log.Info("jobs", "starting billing schedulers", map[string]interface{}{
		"renewal_scan_minutes": js.cfg.RenewalScanMinutes,
		"overdue_scan_minutes": js.cfg.OverdueScanMinutes,
	})
	js.scheduler.Start()
}

func (js *Scheduler) Stop() error {
	return js.scheduler.Shutdown()
}

func (js *Scheduler) runRenewalScan() {
	renewed, err := js.subscriptionSvc.ProcessDueRenewals(context.Background(), time.Now())
	if err != nil {
		js.log.Error("jobs", "renewal scan failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if renewed > 0 {
		js.log.Info("jobs", "renewal scan finished", map[string]interface{}{"renewed": renewed})
	}
}

func (js *Scheduler) runOverdueScan() {
	emitted, err := js.overdueSvc.ProcessOverdueBillings(context.Background(), time.Now())
	if err != nil {
		js.log.Error("jobs", "overdue scan failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if emitted > 0 {
		js.log.Info("jobs", "overdue scan finished", map[string]interface{}{"emitted": emitted})
	}
}
