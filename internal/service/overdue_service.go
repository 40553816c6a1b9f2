// FILE: internal/service/overdue_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/pkg/events"
)

type IOverdueService interface {
	// ProcessOverdueBillings emits an overdue event for every pending
	// billing past its due date. The reactor performs the status flip, so
	// a scan crash mid-way never leaves half-updated rows.
	ProcessOverdueBillings(ctx context.Context, now time.Time) (int, error)
}

type overdueService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	log              logger.ILogger
}

func NewOverdueService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) IOverdueService {
	return &overdueService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *overdueService) ProcessOverdueBillings(ctx context.Context, now time.Time) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bills, err := uow.BillingRepository().FindAll(ctx, specification.BillingPastDue{Now: now})
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, bill := range bills {
		evt := events.NewBillingOverdue(bill.Id, bill.SubscriptionId, bill.Amount, bill.Currency)
		payload, err := json.Marshal(evt)
		if err != nil {
			s.log.Error("overdue", "failed to marshal overdue event", map[string]interface{}{"error": err.Error()})
			continue
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			s.log.Error("overdue", "failed to publish overdue event", map[string]interface{}{
				"billing_id": bill.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		emitted++
	}

	if emitted > 0 {
		s.log.Info("overdue", "overdue scan finished", map[string]interface{}{
			"emitted": emitted,
			"scanned": len(bills),
		})
	}
	return emitted, nil
}
