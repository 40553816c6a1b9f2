// FILE: internal/service/billing_reactor_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"plugin-billing-be/internal/constant"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/pkg/locker"
	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/pkg/mailer"
	"plugin-billing-be/internal/repository/memory"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/pkg/events"
	pktNats "plugin-billing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// dedupeTTL bounds how long a processed event id is remembered. Redeliveries
// inside this window are dropped.
const dedupeTTL = 24 * time.Hour

type IBillingReactorService interface {
	Consume(ctx context.Context) error
}

// billingReactorService reacts to billing status events and moves the
// owning subscription through its lifecycle. Handlers are idempotent and
// never propagate errors upstream: a poisoned event is logged and dropped,
// a retriable failure is redelivered.
type billingReactorService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	emailService   mailer.IEmailService
	accessCache    *memory.AccessCache
	redisClient    *redis.Client
	locks          *locker.KeyedMutex
	log            logger.ILogger
}

func NewBillingReactorService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	accessCache *memory.AccessCache,
	redisClient *redis.Client,
	log logger.ILogger,
) IBillingReactorService {
	return &billingReactorService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		accessCache:    accessCache,
		redisClient:    redisClient,
		locks:          locker.NewKeyedMutex(),
		log:            log,
	}
}

func (rs *billingReactorService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *billingReactorService) processMessage(ctx context.Context, msg *message.Message) {
	var evt events.BillingEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		rs.log.Error("reactor", "failed to unmarshal billing event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed payloads never become valid, drop them
		return
	}

	if rs.alreadyProcessed(ctx, evt.EventId) {
		rs.log.Debug("reactor", "duplicate event dropped", map[string]interface{}{"event_id": evt.EventId})
		msg.Ack()
		return
	}

	// Serialize per subscription so concurrent events cannot race the
	// failure counter or double-flip status.
	lockKey := evt.SubscriptionId.String()
	rs.locks.Lock(lockKey)
	err := rs.handle(ctx, &evt)
	rs.locks.Unlock(lockKey)

	if err != nil {
		if errors.Is(err, apperrors.ErrStaleUpdate) {
			// Someone else changed the row; redeliver and re-read.
			rs.log.Warn("reactor", "stale update, redelivering", map[string]interface{}{
				"event_id": evt.EventId,
				"type":     evt.Type,
			})
			msg.Nack()
			return
		}
		if apperrors.IsValidation(err) || apperrors.IsNotFound(err) {
			// Business-rule rejections are terminal for this event.
			rs.log.Warn("reactor", "event rejected", map[string]interface{}{
				"event_id": evt.EventId,
				"type":     evt.Type,
				"error":    err.Error(),
			})
			msg.Ack()
			return
		}
		rs.log.Error("reactor", "failed to process billing event", map[string]interface{}{
			"event_id": evt.EventId,
			"type":     evt.Type,
			"error":    err.Error(),
		})
		msg.Nack()
		return
	}

	rs.markProcessed(ctx, evt.EventId)
	msg.Ack()
}

func (rs *billingReactorService) handle(ctx context.Context, evt *events.BillingEvent) error {
	switch evt.Type {
	case constant.EventBillingCreated:
		return rs.handleCreated(ctx, evt)
	case constant.EventBillingPaid:
		return rs.handlePaid(ctx, evt)
	case constant.EventBillingFailed:
		return rs.handleFailed(ctx, evt)
	case constant.EventBillingOverdue:
		return rs.handleOverdue(ctx, evt)
	default:
		rs.log.Warn("reactor", "unknown billing event type", map[string]interface{}{"type": evt.Type})
		return nil
	}
}

func (rs *billingReactorService) handleCreated(ctx context.Context, evt *events.BillingEvent) error {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	bill, sub, err := rs.loadPair(ctx, uow, evt)
	if err != nil {
		return err
	}

	if sub.Metadata != nil && sub.Metadata[constant.MetaLastBillingId] == bill.Id.String() {
		// Already stamped, either by the emitter or a prior delivery.
		return nil
	}

	sub.SetMeta(constant.MetaLastBillingId, bill.Id.String())
	sub.SetMeta(constant.MetaLastBillingDate, bill.BillingDate.Format(time.RFC3339))
	sub.SetMeta(constant.MetaLastBillingAmount, bill.Amount)
	sub.UpdatedAt = time.Now()

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	return uow.Commit()
}

func (rs *billingReactorService) handlePaid(ctx context.Context, evt *events.BillingEvent) error {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	bill, sub, err := rs.loadPair(ctx, uow, evt)
	if err != nil {
		return err
	}

	if bill.Status == entity.BillingStatusPaid {
		// Redelivered after a partial failure; nothing left to do.
		return nil
	}

	now := time.Now()
	bill.Status = entity.BillingStatusPaid
	bill.PaidAt = &now
	if evt.Reference != "" {
		if bill.Metadata == nil {
			bill.Metadata = map[string]interface{}{}
		}
		bill.Metadata["paymentReference"] = evt.Reference
	}

	wasSuspended := sub.Status == entity.SubscriptionStatusSuspended
	wasTrial := sub.Status == entity.SubscriptionStatusTrial

	sub.SetMeta(constant.MetaPaymentFailureCount, 0)
	sub.SetMeta(constant.MetaLastPaymentDate, now.Format(time.RFC3339))
	sub.SetMeta(constant.MetaLastPaymentAmount, evt.Amount)
	if evt.Reference != "" {
		sub.SetMeta(constant.MetaLastPaymentReference, evt.Reference)
	}
	if wasSuspended {
		sub.Status = entity.SubscriptionStatusActive
		sub.SetMeta(constant.MetaReactivatedAt, now.Format(time.RFC3339))
		sub.SetMeta(constant.MetaReactivatedBy, constant.ReactivatedByPaymentEvent)
	}
	if wasTrial {
		// The settled initial billing converts the trial into a paid term;
		// renewal scans only pick up active subscriptions.
		sub.Status = entity.SubscriptionStatusActive
	}
	sub.UpdatedAt = now

	if err := rs.commitPair(ctx, uow, bill, sub); err != nil {
		return err
	}

	if wasSuspended {
		rs.accessCache.InvalidatePlugin(sub.PluginId, sub.TenantId)
		rs.publishDomainEvent(ctx, constant.EventSubscriptionReactivated, map[string]interface{}{
			"subscription_id": sub.Id,
			"plugin_id":       sub.PluginId,
			"tenant_id":       sub.TenantId,
		})
		rs.notifyReactivated(ctx, sub)
	}

	rs.log.Info("reactor", "billing paid", map[string]interface{}{
		"billing_id":      bill.Id.String(),
		"subscription_id": sub.Id.String(),
		"reactivated":     wasSuspended,
		"trial_converted": wasTrial,
	})
	return nil
}

func (rs *billingReactorService) handleFailed(ctx context.Context, evt *events.BillingEvent) error {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	bill, sub, err := rs.loadPair(ctx, uow, evt)
	if err != nil {
		return err
	}

	if bill.Status == entity.BillingStatusPaid {
		// A failure notification for a settled billing is stale noise.
		return nil
	}
	if bill.Metadata != nil && bill.Metadata[constant.MetaLastFailureEventId] == evt.EventId {
		// Redelivery of an already-counted failure; the redis dedupe is
		// best effort, so the counter needs its own guard.
		return nil
	}

	now := time.Now()
	bill.Status = entity.BillingStatusFailed
	if bill.Metadata == nil {
		bill.Metadata = map[string]interface{}{}
	}
	bill.Metadata[constant.MetaLastFailureEventId] = evt.EventId
	if evt.FailureReason != "" {
		reason := evt.FailureReason
		bill.FailureReason = &reason
	}

	failures := sub.FailureCount() + 1
	sub.SetMeta(constant.MetaPaymentFailureCount, failures)
	sub.SetMeta(constant.MetaLastFailureDate, now.Format(time.RFC3339))
	if evt.FailureReason != "" {
		sub.SetMeta(constant.MetaLastFailureReason, evt.FailureReason)
	}

	suspending := failures >= entity.SuspensionThreshold && !sub.IsTerminal() &&
		sub.Status != entity.SubscriptionStatusSuspended
	if suspending {
		sub.Status = entity.SubscriptionStatusSuspended
		sub.SetMeta(constant.MetaSuspendedAt, now.Format(time.RFC3339))
		sub.SetMeta(constant.MetaSuspensionReason, constant.SuspensionReasonPaymentFailures)
	}
	sub.UpdatedAt = now

	if err := rs.commitPair(ctx, uow, bill, sub); err != nil {
		return err
	}

	if suspending {
		rs.accessCache.InvalidatePlugin(sub.PluginId, sub.TenantId)
		rs.publishDomainEvent(ctx, constant.EventSubscriptionSuspended, map[string]interface{}{
			"subscription_id": sub.Id,
			"plugin_id":       sub.PluginId,
			"tenant_id":       sub.TenantId,
			"failure_count":   failures,
			"reason":          constant.SuspensionReasonPaymentFailures,
		})
		rs.notifySuspended(ctx, sub)
	} else {
		rs.notifyPaymentFailed(ctx, sub, failures)
	}

	rs.log.Warn("reactor", "billing failed", map[string]interface{}{
		"billing_id":      bill.Id.String(),
		"subscription_id": sub.Id.String(),
		"failure_count":   failures,
		"suspended":       suspending,
	})
	return nil
}

func (rs *billingReactorService) handleOverdue(ctx context.Context, evt *events.BillingEvent) error {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	bill, sub, err := rs.loadPair(ctx, uow, evt)
	if err != nil {
		return err
	}

	if bill.Status != entity.BillingStatusPending {
		// Only pending billings go overdue; paid/failed rows keep their state.
		return nil
	}

	now := time.Now()
	bill.Status = entity.BillingStatusOverdue
	sub.SetMeta(constant.MetaLastOverdueBillingId, bill.Id.String())
	sub.UpdatedAt = now

	if err := rs.commitPair(ctx, uow, bill, sub); err != nil {
		return err
	}

	rs.log.Warn("reactor", "billing overdue", map[string]interface{}{
		"billing_id":      bill.Id.String(),
		"subscription_id": sub.Id.String(),
		"due_date":        bill.DueDate,
	})
	return nil
}

func (rs *billingReactorService) loadPair(ctx context.Context, uow unitofwork.UnitOfWork, evt *events.BillingEvent) (*entity.PluginBilling, *entity.PluginSubscription, error) {
	bill, err := uow.BillingRepository().FindOne(ctx, specification.ByID{ID: evt.BillingId})
	if err != nil {
		return nil, nil, err
	}
	if bill == nil {
		return nil, nil, apperrors.NewNotFound("billing", evt.BillingId.String())
	}

	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specification.ByID{ID: evt.SubscriptionId})
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, apperrors.NewNotFound("subscription", evt.SubscriptionId.String())
	}
	return bill, sub, nil
}

func (rs *billingReactorService) commitPair(ctx context.Context, uow unitofwork.UnitOfWork, bill *entity.PluginBilling, sub *entity.PluginSubscription) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.BillingRepository().Update(ctx, bill); err != nil {
		return err
	}
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	return uow.Commit()
}

func (rs *billingReactorService) alreadyProcessed(ctx context.Context, eventId string) bool {
	if rs.redisClient == nil || eventId == "" {
		return false
	}
	n, err := rs.redisClient.Exists(ctx, dedupeKey(eventId)).Result()
	if err != nil {
		// Dedupe is best-effort; handlers are idempotent anyway.
		rs.log.Warn("reactor", "dedupe lookup failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return n > 0
}

func (rs *billingReactorService) markProcessed(ctx context.Context, eventId string) {
	if rs.redisClient == nil || eventId == "" {
		return
	}
	if err := rs.redisClient.Set(ctx, dedupeKey(eventId), 1, dedupeTTL).Err(); err != nil {
		rs.log.Warn("reactor", "dedupe store failed", map[string]interface{}{"error": err.Error()})
	}
}

func dedupeKey(eventId string) string {
	return "billing:event:" + eventId
}

func (rs *billingReactorService) publishDomainEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if rs.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := rs.eventPublisher.Publish(ctx, evt); err != nil {
		rs.log.Warn("reactor", "failed to publish domain event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

// billingEmail reads the optional notification address from subscription
// metadata. Subscriptions without one simply skip email notifications.
func billingEmail(sub *entity.PluginSubscription) string {
	if sub.Metadata == nil {
		return ""
	}
	if email, ok := sub.Metadata["billingEmail"].(string); ok {
		return email
	}
	return ""
}

func (rs *billingReactorService) pluginName(ctx context.Context, sub *entity.PluginSubscription) string {
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	plugin, err := uow.PluginRepository().FindOne(ctx, specification.ByID{ID: sub.PluginId})
	if err != nil || plugin == nil {
		return "plugin"
	}
	return plugin.Name
}

func (rs *billingReactorService) notifyPaymentFailed(ctx context.Context, sub *entity.PluginSubscription, failures int) {
	email := billingEmail(sub)
	if email == "" || rs.emailService == nil {
		return
	}
	if err := rs.emailService.SendPaymentFailed(email, rs.pluginName(ctx, sub), failures); err != nil {
		rs.log.Warn("reactor", "failed to send payment-failed email", map[string]interface{}{"error": err.Error()})
	}
}

func (rs *billingReactorService) notifySuspended(ctx context.Context, sub *entity.PluginSubscription) {
	email := billingEmail(sub)
	if email == "" || rs.emailService == nil {
		return
	}
	if err := rs.emailService.SendSubscriptionSuspended(email, rs.pluginName(ctx, sub)); err != nil {
		rs.log.Warn("reactor", "failed to send suspension email", map[string]interface{}{"error": err.Error()})
	}
}

func (rs *billingReactorService) notifyReactivated(ctx context.Context, sub *entity.PluginSubscription) {
	email := billingEmail(sub)
	if email == "" || rs.emailService == nil {
		return
	}
	if err := rs.emailService.SendSubscriptionReactivated(email, rs.pluginName(ctx, sub)); err != nil {
		rs.log.Warn("reactor", "failed to send reactivation email", map[string]interface{}{"error": err.Error()})
	}
}
