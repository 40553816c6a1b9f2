// FILE: internal/dto/billing_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"plugin-billing-be/internal/entity"
)

type BillingResponse struct {
	Id             uuid.UUID              `json:"id"`
	SubscriptionId uuid.UUID              `json:"subscription_id"`
	Amount         float64                `json:"amount"`
	Currency       string                 `json:"currency"`
	Status         string                 `json:"status"`
	BillingDate    time.Time              `json:"billing_date"`
	DueDate        time.Time              `json:"due_date"`
	PeriodStart    time.Time              `json:"period_start"`
	PeriodEnd      *time.Time             `json:"period_end,omitempty"`
	Description    string                 `json:"description"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
}

func NewBillingResponse(b *entity.PluginBilling) *BillingResponse {
	if b == nil {
		return nil
	}
	return &BillingResponse{
		Id:             b.Id,
		SubscriptionId: b.SubscriptionId,
		Amount:         b.Amount,
		Currency:       b.Currency,
		Status:         string(b.Status),
		BillingDate:    b.BillingDate,
		DueDate:        b.DueDate,
		PeriodStart:    b.PeriodStart,
		PeriodEnd:      b.PeriodEnd,
		Description:    b.Description,
		Metadata:       b.Metadata,
		PaidAt:         b.PaidAt,
	}
}

// OrderSummaryResponse previews the initial charge for a plan before
// purchase (discount and setup fee broken out).
type OrderSummaryResponse struct {
	PlanName       string  `json:"plan_name"`
	BillingPeriod  string  `json:"billing_period"`
	BasePrice      float64 `json:"base_price"`
	DiscountAmount float64 `json:"discount_amount"`
	SetupFee       float64 `json:"setup_fee"`
	Total          float64 `json:"total"`
	Currency       string  `json:"currency"`
	TrialDays      int     `json:"trial_days"`
}
