package mapper

import (
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/model"

	"gorm.io/datatypes"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) ToEntity(b *model.PluginBilling) *entity.PluginBilling {
	if b == nil {
		return nil
	}
	return &entity.PluginBilling{
		Id:             b.Id,
		SubscriptionId: b.SubscriptionId,
		TenantId:       b.TenantId,
		OrganizationId: b.OrganizationId,
		Amount:         b.Amount,
		Currency:       b.Currency,
		Status:         entity.BillingStatus(b.Status),
		BillingDate:    b.BillingDate,
		DueDate:        b.DueDate,
		PeriodStart:    b.PeriodStart,
		PeriodEnd:      b.PeriodEnd,
		Description:    b.Description,
		Metadata:       map[string]interface{}(b.Metadata),
		PaidAt:         b.PaidAt,
		FailureReason:  b.FailureReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func (m *BillingMapper) ToModel(b *entity.PluginBilling) *model.PluginBilling {
	if b == nil {
		return nil
	}
	return &model.PluginBilling{
		Id:             b.Id,
		SubscriptionId: b.SubscriptionId,
		TenantId:       b.TenantId,
		OrganizationId: b.OrganizationId,
		Amount:         b.Amount,
		Currency:       b.Currency,
		Status:         string(b.Status),
		BillingDate:    b.BillingDate,
		DueDate:        b.DueDate,
		PeriodStart:    b.PeriodStart,
		PeriodEnd:      b.PeriodEnd,
		Description:    b.Description,
		Metadata:       datatypes.JSONMap(b.Metadata),
		PaidAt:         b.PaidAt,
		FailureReason:  b.FailureReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
