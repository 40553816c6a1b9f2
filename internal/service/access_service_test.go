// FILE: internal/service/access_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscription(store *fakeStore, pluginId, tenantId uuid.UUID, scope entity.SubscriptionScope, orgId, userId *uuid.UUID, status entity.SubscriptionStatus) *entity.PluginSubscription {
	end := time.Now().AddDate(0, 1, 0)
	s := &entity.PluginSubscription{
		Id:             uuid.New(),
		PluginId:       pluginId,
		PlanId:         uuid.New(),
		TenantId:       tenantId,
		OrganizationId: orgId,
		SubscriberId:   userId,
		Scope:          scope,
		BillingPeriod:  entity.BillingPeriodMonthly,
		Status:         status,
		StartDate:      time.Now(),
		EndDate:        &end,
	}
	store.subscriptions[s.Id] = s
	return s
}

func TestCheckAccess_FreePluginAlwaysGranted(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, false)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId: plugin.Id,
		TenantId: tenantId,
	})
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.False(t, res.SubscriptionRequired)
}

func TestCheckAccess_DenialIsStructured(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId: plugin.Id,
		TenantId: tenantId,
	})
	require.NoError(t, err, "a missing subscription is a denial, not an error")
	assert.False(t, res.Granted)
	assert.True(t, res.SubscriptionRequired)
}

func TestCheckAccess_UnknownPlugin(t *testing.T) {
	f := newFakeFactory()
	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	_, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId: uuid.New(),
		TenantId: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCheckAccess_ScopePrecedence(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	orgId := uuid.New()
	userId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)

	userSub := seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeUser, &orgId, &userId, entity.SubscriptionStatusActive)
	seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeOrganization, &orgId, nil, entity.SubscriptionStatusActive)
	seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeTenant, nil, nil, entity.SubscriptionStatusActive)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId:       plugin.Id,
		TenantId:       tenantId,
		OrganizationId: &orgId,
		UserId:         &userId,
	})
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, "USER", res.Scope, "the narrowest matching scope wins")
	require.NotNil(t, res.SubscriptionId)
	assert.Equal(t, userSub.Id, *res.SubscriptionId)
}

func TestCheckAccess_FallsThroughToWiderScopes(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	orgId := uuid.New()
	userId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)

	tenantSub := seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeTenant, nil, nil, entity.SubscriptionStatusActive)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId:       plugin.Id,
		TenantId:       tenantId,
		OrganizationId: &orgId,
		UserId:         &userId,
	})
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, "TENANT", res.Scope)
	require.NotNil(t, res.SubscriptionId)
	assert.Equal(t, tenantSub.Id, *res.SubscriptionId)
}

func TestCheckAccess_SuspendedDoesNotGrant(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)

	seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeTenant, nil, nil, entity.SubscriptionStatusSuspended)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId: plugin.Id,
		TenantId: tenantId,
	})
	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.True(t, res.SubscriptionRequired)
}

func TestCheckAccess_TrialGrants(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)

	seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeTenant, nil, nil, entity.SubscriptionStatusTrial)

	svc := NewAccessService(f, memory.NewAccessCache(30*time.Second))

	res, err := svc.CheckAccess(context.Background(), &dto.AccessCheckRequest{
		PluginId: plugin.Id,
		TenantId: tenantId,
	})
	require.NoError(t, err)
	assert.True(t, res.Granted)
}

func TestCheckAccess_CachesDecision(t *testing.T) {
	f := newFakeFactory()
	tenantId := uuid.New()
	plugin := seedPlugin(f.store, tenantId, true)
	sub := seedSubscription(f.store, plugin.Id, tenantId, entity.ScopeTenant, nil, nil, entity.SubscriptionStatusActive)

	cache := memory.NewAccessCache(time.Minute)
	svc := NewAccessService(f, cache)

	req := &dto.AccessCheckRequest{PluginId: plugin.Id, TenantId: tenantId}

	res, err := svc.CheckAccess(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Granted)

	// drop the backing row; the cached decision still answers
	delete(f.store.subscriptions, sub.Id)

	res, err = svc.CheckAccess(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Granted)

	// invalidation forces a re-evaluation
	cache.InvalidatePlugin(plugin.Id, tenantId)

	res, err = svc.CheckAccess(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Granted)
}
