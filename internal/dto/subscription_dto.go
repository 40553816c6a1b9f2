// FILE: internal/dto/subscription_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"plugin-billing-be/internal/entity"
)

// --- Lifecycle DTOs ---

type PurchaseRequest struct {
	PluginId       uuid.UUID  `json:"plugin_id" validate:"required"`
	PlanId         uuid.UUID  `json:"plan_id" validate:"required"`
	TenantId       uuid.UUID  `json:"tenant_id" validate:"required"`
	OrganizationId *uuid.UUID `json:"organization_id,omitempty"`
	SubscriberId   *uuid.UUID `json:"subscriber_id,omitempty"`
	Scope          string     `json:"scope" validate:"required,oneof=USER ORGANIZATION TENANT"`
	AutoRenew      bool       `json:"auto_renew"`
}

type UpgradeRequest struct {
	NewPlanId uuid.UUID `json:"new_plan_id" validate:"required"`
}

type DowngradeRequest struct {
	NewPlanId uuid.UUID `json:"new_plan_id" validate:"required"`
}

type ExtendTrialRequest struct {
	Days int `json:"days" validate:"required,min=1"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type SubscriptionResponse struct {
	Id                 uuid.UUID              `json:"id"`
	PluginId           uuid.UUID              `json:"plugin_id"`
	PlanId             uuid.UUID              `json:"plan_id"`
	TenantId           uuid.UUID              `json:"tenant_id"`
	OrganizationId     *uuid.UUID             `json:"organization_id,omitempty"`
	SubscriberId       *uuid.UUID             `json:"subscriber_id,omitempty"`
	Scope              string                 `json:"scope"`
	Status             string                 `json:"status"`
	BillingPeriod      string                 `json:"billing_period"`
	StartDate          time.Time              `json:"start_date"`
	EndDate            *time.Time             `json:"end_date,omitempty"`
	TrialEndDate       *time.Time             `json:"trial_end_date,omitempty"`
	AutoRenew          bool                   `json:"auto_renew"`
	CancelledAt        *time.Time             `json:"cancelled_at,omitempty"`
	CancellationReason *string                `json:"cancellation_reason,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

func NewSubscriptionResponse(s *entity.PluginSubscription) *SubscriptionResponse {
	if s == nil {
		return nil
	}
	return &SubscriptionResponse{
		Id:                 s.Id,
		PluginId:           s.PluginId,
		PlanId:             s.PlanId,
		TenantId:           s.TenantId,
		OrganizationId:     s.OrganizationId,
		SubscriberId:       s.SubscriberId,
		Scope:              string(s.Scope),
		Status:             string(s.Status),
		BillingPeriod:      string(s.BillingPeriod),
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		TrialEndDate:       s.TrialEndDate,
		AutoRenew:          s.AutoRenew,
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		Metadata:           s.Metadata,
	}
}

// PurchaseResult carries the new subscription together with its first
// billing record (nil for free plugins).
type PurchaseResult struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	Billing      *BillingResponse      `json:"billing,omitempty"`
}

// UpgradeResult reports the prorated charge issued for the plan swap.
type UpgradeResult struct {
	Subscription   *SubscriptionResponse `json:"subscription"`
	Billing        *BillingResponse      `json:"billing,omitempty"`
	CreditApplied  float64               `json:"credit_applied"`
	ProratedAmount float64               `json:"prorated_amount"`
}
