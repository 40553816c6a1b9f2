// FILE: internal/service/subscription_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"plugin-billing-be/internal/constant"
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/repository/memory"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/pkg/billing"
	"plugin-billing-be/pkg/events"
	pktNats "plugin-billing-be/pkg/nats"

	"github.com/google/uuid"
)

type ISubscriptionService interface {
	Purchase(ctx context.Context, req *dto.PurchaseRequest) (*dto.PurchaseResult, error)
	Upgrade(ctx context.Context, subscriptionId uuid.UUID, req *dto.UpgradeRequest) (*dto.UpgradeResult, error)
	Downgrade(ctx context.Context, subscriptionId uuid.UUID, req *dto.DowngradeRequest) (*dto.SubscriptionResponse, error)
	ExtendTrial(ctx context.Context, subscriptionId uuid.UUID, req *dto.ExtendTrialRequest) (*dto.SubscriptionResponse, error)
	Cancel(ctx context.Context, subscriptionId uuid.UUID, req *dto.CancelRequest) (*dto.SubscriptionResponse, error)
	Renew(ctx context.Context, subscriptionId uuid.UUID) (*dto.BillingResponse, error)
	GetSubscription(ctx context.Context, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)
	GetBillingHistory(ctx context.Context, subscriptionId uuid.UUID) ([]*dto.BillingResponse, error)

	// ProcessDueRenewals is invoked by the renewal scheduler. It returns the
	// number of subscriptions renewed; per-subscription failures are logged
	// and skipped so one bad row cannot stall the scan.
	ProcessDueRenewals(ctx context.Context, now time.Time) (int, error)
}

type subscriptionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	accessCache      *memory.AccessCache
	factory          *billing.Factory
	log              logger.ILogger
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	accessCache *memory.AccessCache,
	log logger.ILogger,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		accessCache:      accessCache,
		factory:          billing.NewFactory(),
		log:              log,
	}
}

func (s *subscriptionService) Purchase(ctx context.Context, req *dto.PurchaseRequest) (*dto.PurchaseResult, error) {
	scope := entity.SubscriptionScope(req.Scope)
	if err := validateScopeTarget(scope, req.OrganizationId, req.SubscriberId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	plugin, err := uow.PluginRepository().FindOne(ctx, specification.ByID{ID: req.PluginId})
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, apperrors.NewNotFound("plugin", req.PluginId.String())
	}
	if plugin.Status != entity.PluginStatusActive {
		return nil, apperrors.NewValidation("plugin %s is not available for purchase", plugin.Slug)
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: req.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", req.PlanId.String())
	}
	if plan.PluginId != req.PluginId {
		return nil, apperrors.NewValidation("plan %s does not belong to plugin %s", req.PlanId, req.PluginId)
	}

	existing, err := s.findActiveForTarget(ctx, uow, req.PluginId, req.TenantId, scope, req.OrganizationId, req.SubscriberId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewValidation("an active subscription already exists for this plugin and scope")
	}

	now := time.Now()
	hasTrial := plan.TrialDays > 0

	sub := &entity.PluginSubscription{
		Id:             uuid.New(),
		PluginId:       req.PluginId,
		PlanId:         plan.Id,
		TenantId:       req.TenantId,
		OrganizationId: req.OrganizationId,
		SubscriberId:   req.SubscriberId,
		Scope:          scope,
		BillingPeriod:  plan.BillingPeriod,
		Status:         entity.SubscriptionStatusActive,
		StartDate:      now,
		EndDate:        billing.PeriodEnd(now, plan.BillingPeriod),
		AutoRenew:      req.AutoRenew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if hasTrial {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.Status = entity.SubscriptionStatusTrial
		sub.TrialEndDate = &trialEnd
		// The paid period starts once the trial is over.
		sub.EndDate = billing.PeriodEnd(trialEnd, plan.BillingPeriod)
	}

	var bill *entity.PluginBilling
	total, _ := s.factory.CalculateBillingAmount(plan, true)
	if total > 0 {
		bill = s.factory.CreateInitialBilling(sub.Id, plan, hasTrial, req.TenantId, req.OrganizationId)
		sub.SetMeta(constant.MetaLastBillingId, bill.Id.String())
		sub.SetMeta(constant.MetaLastBillingDate, bill.BillingDate.Format(time.RFC3339))
		sub.SetMeta(constant.MetaLastBillingAmount, bill.Amount)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if bill != nil {
		if err := uow.BillingRepository().Create(ctx, bill); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.accessCache.InvalidatePlugin(req.PluginId, req.TenantId)

	if bill != nil {
		s.emitBillingEvent(ctx, events.NewBillingCreated(bill.Id, sub.Id, bill.Amount, bill.Currency))
	}
	s.emitDomainEvent(ctx, constant.EventSubscriptionCreated, map[string]interface{}{
		"subscription_id": sub.Id,
		"plugin_id":       sub.PluginId,
		"plan_id":         sub.PlanId,
		"tenant_id":       sub.TenantId,
		"scope":           string(sub.Scope),
		"status":          string(sub.Status),
	})

	return &dto.PurchaseResult{
		Subscription: dto.NewSubscriptionResponse(sub),
		Billing:      dto.NewBillingResponse(bill),
	}, nil
}

func (s *subscriptionService) Upgrade(ctx context.Context, subscriptionId uuid.UUID, req *dto.UpgradeRequest) (*dto.UpgradeResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}
	if sub.IsTerminal() || sub.Status == entity.SubscriptionStatusSuspended {
		return nil, apperrors.NewValidation("subscription %s cannot be upgraded in status %s", sub.Id, sub.Status)
	}
	if sub.PlanId == req.NewPlanId {
		return nil, apperrors.NewValidation("subscription is already on plan %s", req.NewPlanId)
	}

	currentPlan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, err
	}
	newPlan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: req.NewPlanId})
	if err != nil {
		return nil, err
	}
	if newPlan == nil {
		return nil, apperrors.NewNotFound("plan", req.NewPlanId.String())
	}
	if newPlan.PluginId != sub.PluginId {
		return nil, apperrors.NewValidation("plan %s belongs to a different plugin", req.NewPlanId)
	}

	now := time.Now()
	credit := remainingCredit(currentPlan, sub, now)
	prorated := billing.CoerceAmount(newPlan.Price) - credit
	if prorated < 0 {
		prorated = 0
	}

	previousPlanId := sub.PlanId
	sub.PlanId = newPlan.Id
	sub.BillingPeriod = newPlan.BillingPeriod
	sub.EndDate = billing.PeriodEnd(now, newPlan.BillingPeriod)
	sub.UpdatedAt = now
	sub.SetMeta(constant.MetaPreviousPlanId, previousPlanId.String())

	var bill *entity.PluginBilling
	if prorated > 0 {
		bill = s.factory.CreateForUpgrade(sub.Id, prorated, newPlan.BillingPeriod, newPlan.Currency, sub.TenantId, sub.OrganizationId)
		sub.SetMeta(constant.MetaLastBillingId, bill.Id.String())
		sub.SetMeta(constant.MetaLastBillingDate, bill.BillingDate.Format(time.RFC3339))
		sub.SetMeta(constant.MetaLastBillingAmount, bill.Amount)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if bill != nil {
		if err := uow.BillingRepository().Create(ctx, bill); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.accessCache.InvalidatePlugin(sub.PluginId, sub.TenantId)

	if bill != nil {
		s.emitBillingEvent(ctx, events.NewBillingCreated(bill.Id, sub.Id, bill.Amount, bill.Currency))
	}
	s.emitDomainEvent(ctx, constant.EventSubscriptionUpgraded, map[string]interface{}{
		"subscription_id":  sub.Id,
		"previous_plan_id": previousPlanId,
		"new_plan_id":      newPlan.Id,
		"prorated_amount":  prorated,
		"credit_applied":   credit,
	})

	return &dto.UpgradeResult{
		Subscription:   dto.NewSubscriptionResponse(sub),
		Billing:        dto.NewBillingResponse(bill),
		CreditApplied:  credit,
		ProratedAmount: prorated,
	}, nil
}

// Downgrade does not move money. The new plan is recorded in metadata and
// applied when the current paid period runs out; access and price stay
// unchanged until then.
func (s *subscriptionService) Downgrade(ctx context.Context, subscriptionId uuid.UUID, req *dto.DowngradeRequest) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}
	if sub.IsTerminal() || sub.Status == entity.SubscriptionStatusSuspended {
		return nil, apperrors.NewValidation("subscription %s cannot be downgraded in status %s", sub.Id, sub.Status)
	}
	if sub.PlanId == req.NewPlanId {
		return nil, apperrors.NewValidation("subscription is already on plan %s", req.NewPlanId)
	}

	newPlan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: req.NewPlanId})
	if err != nil {
		return nil, err
	}
	if newPlan == nil {
		return nil, apperrors.NewNotFound("plan", req.NewPlanId.String())
	}
	if newPlan.PluginId != sub.PluginId {
		return nil, apperrors.NewValidation("plan %s belongs to a different plugin", req.NewPlanId)
	}

	sub.SetMeta(constant.MetaDowngradePlanId, newPlan.Id.String())
	sub.UpdatedAt = time.Now()

	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.emitDomainEvent(ctx, constant.EventSubscriptionDowngraded, map[string]interface{}{
		"subscription_id": sub.Id,
		"new_plan_id":     newPlan.Id,
		"effective_at":    sub.EndDate,
	})

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ExtendTrial(ctx context.Context, subscriptionId uuid.UUID, req *dto.ExtendTrialRequest) (*dto.SubscriptionResponse, error) {
	if req.Days <= 0 {
		return nil, apperrors.NewValidation("trial extension must be at least one day")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}
	if sub.Status != entity.SubscriptionStatusTrial || sub.TrialEndDate == nil {
		return nil, apperrors.NewValidation("subscription %s is not in trial", sub.Id)
	}

	extended := sub.TrialEndDate.AddDate(0, 0, req.Days)
	sub.TrialEndDate = &extended
	sub.EndDate = billing.PeriodEnd(extended, sub.BillingPeriod)
	sub.UpdatedAt = time.Now()

	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) Cancel(ctx context.Context, subscriptionId uuid.UUID, req *dto.CancelRequest) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}
	if sub.IsTerminal() {
		return nil, apperrors.NewValidation("subscription %s is already %s", sub.Id, sub.Status)
	}

	now := time.Now()
	sub.Status = entity.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.AutoRenew = false
	if req.Reason != "" {
		sub.CancellationReason = &req.Reason
	}
	sub.UpdatedAt = now

	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.accessCache.InvalidatePlugin(sub.PluginId, sub.TenantId)

	s.emitDomainEvent(ctx, constant.EventSubscriptionCancelled, map[string]interface{}{
		"subscription_id": sub.Id,
		"plugin_id":       sub.PluginId,
		"tenant_id":       sub.TenantId,
		"reason":          req.Reason,
	})

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) Renew(ctx context.Context, subscriptionId uuid.UUID) (*dto.BillingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}

	bill, err := s.renew(ctx, uow, sub, time.Now())
	if err != nil {
		return nil, err
	}
	return dto.NewBillingResponse(bill), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := s.mustFindSubscription(ctx, uow, subscriptionId)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetBillingHistory(ctx context.Context, subscriptionId uuid.UUID) ([]*dto.BillingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bills, err := uow.BillingRepository().FindAll(ctx,
		specification.BySubscriptionID{SubscriptionID: subscriptionId},
		specification.OrderBy{Field: "billing_date", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.BillingResponse, 0, len(bills))
	for _, b := range bills {
		res = append(res, dto.NewBillingResponse(b))
	}
	return res, nil
}

func (s *subscriptionService) ProcessDueRenewals(ctx context.Context, now time.Time) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	due, err := uow.SubscriptionRepository().FindAllSubscriptions(ctx, specification.RenewalDue{Now: now})
	if err != nil {
		return 0, err
	}

	renewed := 0
	for _, sub := range due {
		// Each renewal runs in its own unit of work so a stale-version
		// conflict on one subscription cannot roll back the others.
		if _, err := s.renew(ctx, s.uowFactory.NewUnitOfWork(ctx), sub, now); err != nil {
			s.log.Warn("subscription", "renewal skipped", map[string]interface{}{
				"subscription_id": sub.Id.String(),
				"error":           err.Error(),
			})
			continue
		}
		renewed++
	}
	return renewed, nil
}

// renew issues a renewal billing at the plan's base price and rolls the
// paid period forward. The renewal amount is the plan price verbatim:
// promotional discounts and setup fees apply to the first billing only.
func (s *subscriptionService) renew(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.PluginSubscription, now time.Time) (*entity.PluginBilling, error) {
	if sub.Status != entity.SubscriptionStatusActive {
		return nil, apperrors.NewValidation("subscription %s cannot renew in status %s", sub.Id, sub.Status)
	}
	if !sub.AutoRenew {
		return nil, apperrors.NewValidation("subscription %s has auto-renew disabled", sub.Id)
	}
	if sub.BillingPeriod == entity.BillingPeriodOneTime {
		return nil, apperrors.NewValidation("one-time subscriptions do not renew")
	}

	// A pending downgrade takes effect at the period boundary.
	if planId, ok := sub.Metadata[constant.MetaDowngradePlanId].(string); ok {
		if parsed, err := uuid.Parse(planId); err == nil {
			sub.SetMeta(constant.MetaPreviousPlanId, sub.PlanId.String())
			sub.PlanId = parsed
			delete(sub.Metadata, constant.MetaDowngradePlanId)
		}
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", sub.PlanId.String())
	}

	bill := s.factory.CreateForRenewal(sub.Id, plan, sub.TenantId, sub.OrganizationId)

	periodStart := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		periodStart = *sub.EndDate
	}
	sub.BillingPeriod = plan.BillingPeriod
	sub.EndDate = billing.PeriodEnd(periodStart, plan.BillingPeriod)
	sub.UpdatedAt = now
	sub.SetMeta(constant.MetaLastBillingId, bill.Id.String())
	sub.SetMeta(constant.MetaLastBillingDate, bill.BillingDate.Format(time.RFC3339))
	sub.SetMeta(constant.MetaLastBillingAmount, bill.Amount)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.BillingRepository().Create(ctx, bill); err != nil {
		return nil, err
	}
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.emitBillingEvent(ctx, events.NewBillingCreated(bill.Id, sub.Id, bill.Amount, bill.Currency))
	return bill, nil
}

func (s *subscriptionService) mustFindSubscription(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.PluginSubscription, error) {
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("subscription", id.String())
	}
	return sub, nil
}

func (s *subscriptionService) findActiveForTarget(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	pluginId, tenantId uuid.UUID,
	scope entity.SubscriptionScope,
	orgId, subscriberId *uuid.UUID,
) (*entity.PluginSubscription, error) {
	specs := []specification.Specification{
		specification.ByPluginID{PluginID: pluginId},
		specification.ByTenantID{TenantID: tenantId},
		specification.ByScope{Scope: scope},
		specification.SubscriptionActive{Now: time.Now()},
	}
	switch scope {
	case entity.ScopeUser:
		specs = append(specs, specification.BySubscriberID{SubscriberID: *subscriberId})
	case entity.ScopeOrganization:
		specs = append(specs, specification.ByOrganizationID{OrganizationID: *orgId})
	}
	return uow.SubscriptionRepository().FindOneSubscription(ctx, specs...)
}

// emitBillingEvent feeds the internal billing pipeline. Publish failures are
// logged, not returned: the state change is already committed.
func (s *subscriptionService) emitBillingEvent(ctx context.Context, evt events.BillingEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		s.log.Error("subscription", "failed to marshal billing event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Error("subscription", "failed to publish billing event", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}

func (s *subscriptionService) emitDomainEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("subscription", "failed to publish domain event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func validateScopeTarget(scope entity.SubscriptionScope, orgId, subscriberId *uuid.UUID) error {
	switch scope {
	case entity.ScopeUser:
		if subscriberId == nil {
			return apperrors.NewValidation("USER scope requires a subscriber id")
		}
	case entity.ScopeOrganization:
		if orgId == nil {
			return apperrors.NewValidation("ORGANIZATION scope requires an organization id")
		}
	case entity.ScopeTenant:
	default:
		return apperrors.NewValidation("unknown subscription scope: %s", scope)
	}
	return nil
}

// remainingCredit values the unused tail of the current period as a linear
// time ratio of the current plan's base price.
func remainingCredit(currentPlan *entity.SubscriptionPlan, sub *entity.PluginSubscription, now time.Time) float64 {
	if currentPlan == nil || sub.EndDate == nil || !sub.EndDate.After(now) {
		return 0
	}
	periodStart := sub.StartDate
	if lastBilling, ok := sub.Metadata[constant.MetaLastBillingDate].(string); ok {
		if t, err := time.Parse(time.RFC3339, lastBilling); err == nil && t.Before(*sub.EndDate) {
			periodStart = t
		}
	}
	total := sub.EndDate.Sub(periodStart)
	if total <= 0 {
		return 0
	}
	remaining := sub.EndDate.Sub(now)
	ratio := float64(remaining) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	return billing.CoerceAmount(currentPlan.Price) * ratio
}
