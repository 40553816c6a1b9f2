package mapper

import (
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.SubscriptionPlan) *entity.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &entity.SubscriptionPlan{
		Id:                 p.Id,
		PluginId:           p.PluginId,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Price:              p.Price,
		Currency:           p.Currency,
		DiscountPercentage: p.DiscountPercentage,
		SetupFee:           p.SetupFee,
		BillingPeriod:      entity.BillingPeriod(p.BillingPeriod),
		TrialDays:          p.TrialDays,
		IsActive:           p.IsActive,
		SortOrder:          p.SortOrder,
		CreatedAt:          p.CreatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.SubscriptionPlan) *model.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &model.SubscriptionPlan{
		Id:                 p.Id,
		PluginId:           p.PluginId,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Price:              p.Price,
		Currency:           p.Currency,
		DiscountPercentage: p.DiscountPercentage,
		SetupFee:           p.SetupFee,
		BillingPeriod:      string(p.BillingPeriod),
		TrialDays:          p.TrialDays,
		IsActive:           p.IsActive,
		SortOrder:          p.SortOrder,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.PluginSubscription) *entity.PluginSubscription {
	if s == nil {
		return nil
	}
	return &entity.PluginSubscription{
		Id:                 s.Id,
		PluginId:           s.PluginId,
		PlanId:             s.PlanId,
		TenantId:           s.TenantId,
		OrganizationId:     s.OrganizationId,
		SubscriberId:       s.SubscriberId,
		Scope:              entity.SubscriptionScope(s.Scope),
		BillingPeriod:      entity.BillingPeriod(s.BillingPeriod),
		Status:             entity.SubscriptionStatus(s.Status),
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		TrialEndDate:       s.TrialEndDate,
		AutoRenew:          s.AutoRenew,
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		Metadata:           map[string]interface{}(s.Metadata),
		LockVersion:        s.LockVersion,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.PluginSubscription) *model.PluginSubscription {
	if s == nil {
		return nil
	}
	return &model.PluginSubscription{
		Id:                 s.Id,
		PluginId:           s.PluginId,
		PlanId:             s.PlanId,
		TenantId:           s.TenantId,
		OrganizationId:     s.OrganizationId,
		SubscriberId:       s.SubscriberId,
		Scope:              string(s.Scope),
		BillingPeriod:      string(s.BillingPeriod),
		Status:             string(s.Status),
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		TrialEndDate:       s.TrialEndDate,
		AutoRenew:          s.AutoRenew,
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		Metadata:           datatypes.JSONMap(s.Metadata),
		LockVersion:        s.LockVersion,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
