// FILE: internal/service/subscription_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"plugin-billing-be/internal/constant"
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscriptionService(f *fakeFactory) (ISubscriptionService, *noopPublisher) {
	pub := &noopPublisher{}
	cache := memory.NewAccessCache(30 * time.Second)
	return NewSubscriptionService(f, pub, nil, cache, noopLogger{}), pub
}

func TestPurchase_PaidPlan(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 20, 10, entity.BillingPeriodMonthly, 0)

	svc, pub := newTestSubscriptionService(f)

	res, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId:  plugin.Id,
		PlanId:    plan.Id,
		TenantId:  tenantId,
		Scope:     "TENANT",
		AutoRenew: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Billing)

	assert.Equal(t, "active", res.Subscription.Status)
	assert.Equal(t, "monthly", res.Subscription.BillingPeriod)
	require.NotNil(t, res.Subscription.EndDate)

	// 100 - 20% + 10 setup fee
	assert.InDelta(t, 90.0, res.Billing.Amount, 0.001)
	assert.Equal(t, "pending", res.Billing.Status)
	assert.Equal(t, res.Billing.BillingDate.AddDate(0, 0, 14), res.Billing.DueDate)

	assert.Equal(t, res.Billing.Id.String(), res.Subscription.Metadata[constant.MetaLastBillingId])
	assert.Equal(t, 1, pub.count(), "purchase should emit one billing event")
}

func TestPurchase_WithTrial(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 50, 0, 0, entity.BillingPeriodMonthly, 14)

	svc, _ := newTestSubscriptionService(f)

	res, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   plan.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)

	assert.Equal(t, "trial", res.Subscription.Status)
	require.NotNil(t, res.Subscription.TrialEndDate)
	require.NotNil(t, res.Billing)
	// billing is deferred past the trial window
	assert.WithinDuration(t, *res.Subscription.TrialEndDate, res.Billing.BillingDate, time.Minute)
}

func TestPurchase_FreePlan_NoBilling(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 0, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, pub := newTestSubscriptionService(f)

	res, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   plan.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Billing)
	assert.Equal(t, 0, pub.count())
}

func TestPurchase_DuplicateActiveRejected(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)
	req := &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   plan.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	}

	_, err := svc.Purchase(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPurchase_ScopeTargetValidation(t *testing.T) {
	f := newFakeFactory()
	svc, _ := newTestSubscriptionService(f)

	_, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: uuid.New(),
		PlanId:   uuid.New(),
		TenantId: uuid.New(),
		Scope:    "USER", // no subscriber id
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: uuid.New(),
		PlanId:   uuid.New(),
		TenantId: uuid.New(),
		Scope:    "ORGANIZATION", // no organization id
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpgrade_ProratedBilling(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	basic := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)
	pro := seedPlan(f.store, plugin.Id, 300, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   basic.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)

	res, err := svc.Upgrade(context.Background(), purchase.Subscription.Id, &dto.UpgradeRequest{NewPlanId: pro.Id})
	require.NoError(t, err)

	assert.Equal(t, pro.Id, res.Subscription.PlanId)
	require.NotNil(t, res.Billing)
	// freshly purchased: nearly the whole old period is credited
	assert.InDelta(t, 100.0, res.CreditApplied, 1.0)
	assert.InDelta(t, 200.0, res.ProratedAmount, 1.0)
	// upgrades carry the shorter due window
	assert.Equal(t, res.Billing.BillingDate.AddDate(0, 0, 7), res.Billing.DueDate)
	assert.Equal(t, basic.Id.String(), res.Subscription.Metadata[constant.MetaPreviousPlanId])
}

func TestUpgrade_SamePlanRejected(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   plan.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)

	_, err = svc.Upgrade(context.Background(), purchase.Subscription.Id, &dto.UpgradeRequest{NewPlanId: plan.Id})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpgrade_CreditCappedAtNewPrice(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	expensive := seedPlan(f.store, plugin.Id, 500, 0, 0, entity.BillingPeriodMonthly, 0)
	cheap := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   expensive.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)

	res, err := svc.Upgrade(context.Background(), purchase.Subscription.Id, &dto.UpgradeRequest{NewPlanId: cheap.Id})
	require.NoError(t, err)

	// remaining credit exceeds the new price; no negative invoices
	assert.Equal(t, 0.0, res.ProratedAmount)
	assert.Nil(t, res.Billing)
}

func TestDowngrade_DeferredToPeriodEnd(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	pro := seedPlan(f.store, plugin.Id, 300, 0, 0, entity.BillingPeriodMonthly, 0)
	basic := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId:  plugin.Id,
		PlanId:    pro.Id,
		TenantId:  tenantId,
		Scope:     "TENANT",
		AutoRenew: true,
	})
	require.NoError(t, err)

	res, err := svc.Downgrade(context.Background(), purchase.Subscription.Id, &dto.DowngradeRequest{NewPlanId: basic.Id})
	require.NoError(t, err)

	// plan unchanged until renewal; intent recorded in metadata
	assert.Equal(t, pro.Id, res.PlanId)
	assert.Equal(t, basic.Id.String(), res.Metadata[constant.MetaDowngradePlanId])

	bills, err := svc.GetBillingHistory(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	assert.Len(t, bills, 1, "downgrade must not create a billing")
}

func TestExtendTrial(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	withTrial := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 7)
	noTrial := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	trialSub, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   withTrial.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
	})
	require.NoError(t, err)
	before := *trialSub.Subscription.TrialEndDate

	res, err := svc.ExtendTrial(context.Background(), trialSub.Subscription.Id, &dto.ExtendTrialRequest{Days: 5})
	require.NoError(t, err)
	assert.Equal(t, before.AddDate(0, 0, 5), *res.TrialEndDate)

	// a non-trial subscription cannot be extended
	otherTenant := uuid.New()
	otherPlugin := seedPlugin(f.store, otherTenant, true)
	noTrial.PluginId = otherPlugin.Id
	f.store.plans[noTrial.Id] = noTrial

	activeSub, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: otherPlugin.Id,
		PlanId:   noTrial.Id,
		TenantId: otherTenant,
		Scope:    "TENANT",
	})
	require.NoError(t, err)

	_, err = svc.ExtendTrial(context.Background(), activeSub.Subscription.Id, &dto.ExtendTrialRequest{Days: 5})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCancel_TerminalState(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId:  plugin.Id,
		PlanId:    plan.Id,
		TenantId:  tenantId,
		Scope:     "TENANT",
		AutoRenew: true,
	})
	require.NoError(t, err)

	res, err := svc.Cancel(context.Background(), purchase.Subscription.Id, &dto.CancelRequest{Reason: "too expensive"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)
	assert.False(t, res.AutoRenew)
	require.NotNil(t, res.CancellationReason)
	assert.Equal(t, "too expensive", *res.CancellationReason)
	require.NotNil(t, res.CancelledAt)
	firstCancelledAt := *res.CancelledAt

	_, err = svc.Cancel(context.Background(), purchase.Subscription.Id, &dto.CancelRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// the rejected second cancel must leave the original timestamp alone
	after, err := svc.GetSubscription(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	require.NotNil(t, after.CancelledAt)
	assert.Equal(t, firstCancelledAt, *after.CancelledAt)
}

func TestRenew_PlanPriceVerbatim(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	// discount and setup fee must never leak into renewals
	plan := seedPlan(f.store, plugin.Id, 100, 20, 10, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId:  plugin.Id,
		PlanId:    plan.Id,
		TenantId:  tenantId,
		Scope:     "TENANT",
		AutoRenew: true,
	})
	require.NoError(t, err)
	previousEnd := *purchase.Subscription.EndDate

	bill, err := svc.Renew(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, bill.Amount, 0.001)

	renewed, err := svc.GetSubscription(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	require.NotNil(t, renewed.EndDate)
	// the paid period rolls forward from the previous end, not from now
	assert.Equal(t, previousEnd.AddDate(0, 1, 0), *renewed.EndDate)
}

func TestRenew_Rejections(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId: plugin.Id,
		PlanId:   plan.Id,
		TenantId: tenantId,
		Scope:    "TENANT",
		// AutoRenew left off
	})
	require.NoError(t, err)

	_, err = svc.Renew(context.Background(), purchase.Subscription.Id)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProcessDueRenewals(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	plan := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	now := time.Now()
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 10)

	due := &entity.PluginSubscription{
		Id:            uuid.New(),
		PluginId:      plugin.Id,
		PlanId:        plan.Id,
		TenantId:      tenantId,
		Scope:         entity.ScopeTenant,
		BillingPeriod: entity.BillingPeriodMonthly,
		Status:        entity.SubscriptionStatusActive,
		StartDate:     now.AddDate(0, -1, 0),
		EndDate:       &past,
		AutoRenew:     true,
	}
	notDue := &entity.PluginSubscription{
		Id:            uuid.New(),
		PluginId:      plugin.Id,
		PlanId:        plan.Id,
		TenantId:      tenantId,
		Scope:         entity.ScopeTenant,
		BillingPeriod: entity.BillingPeriodMonthly,
		Status:        entity.SubscriptionStatusActive,
		StartDate:     now,
		EndDate:       &future,
		AutoRenew:     true,
	}
	f.store.subscriptions[due.Id] = due
	f.store.subscriptions[notDue.Id] = notDue

	svc, pub := newTestSubscriptionService(f)

	renewed, err := svc.ProcessDueRenewals(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)
	assert.Equal(t, 1, pub.count())

	bills, err := svc.GetBillingHistory(context.Background(), due.Id)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.InDelta(t, 100.0, bills[0].Amount, 0.001)
}

func TestRenew_AppliesPendingDowngrade(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	pro := seedPlan(f.store, plugin.Id, 300, 0, 0, entity.BillingPeriodMonthly, 0)
	basic := seedPlan(f.store, plugin.Id, 100, 0, 0, entity.BillingPeriodMonthly, 0)

	svc, _ := newTestSubscriptionService(f)

	purchase, err := svc.Purchase(context.Background(), &dto.PurchaseRequest{
		PluginId:  plugin.Id,
		PlanId:    pro.Id,
		TenantId:  tenantId,
		Scope:     "TENANT",
		AutoRenew: true,
	})
	require.NoError(t, err)

	_, err = svc.Downgrade(context.Background(), purchase.Subscription.Id, &dto.DowngradeRequest{NewPlanId: basic.Id})
	require.NoError(t, err)

	bill, err := svc.Renew(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	// the renewal bills the downgraded plan
	assert.InDelta(t, 100.0, bill.Amount, 0.001)

	sub, err := svc.GetSubscription(context.Background(), purchase.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, basic.Id, sub.PlanId)
	assert.NotContains(t, sub.Metadata, constant.MetaDowngradePlanId)
}
