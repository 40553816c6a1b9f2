// FILE: internal/dto/plan_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"plugin-billing-be/internal/entity"
)

type CreatePlanRequest struct {
	PluginId           uuid.UUID `json:"plugin_id"`
	Name               string    `json:"name"`
	Price              float64   `json:"price"`
	Currency           string    `json:"currency"`
	DiscountPercentage float64   `json:"discount_percentage"`
	SetupFee           float64   `json:"setup_fee"`
	BillingPeriod      string    `json:"billing_period"`
	TrialDays          int       `json:"trial_days"`
}

type UpdatePlanRequest struct {
	Name               *string  `json:"name"`
	Price              *float64 `json:"price"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	SetupFee           *float64 `json:"setup_fee"`
	TrialDays          *int     `json:"trial_days"`
}

type PlanResponse struct {
	Id                 uuid.UUID `json:"id"`
	PluginId           uuid.UUID `json:"plugin_id"`
	Name               string    `json:"name"`
	Price              float64   `json:"price"`
	Currency           string    `json:"currency"`
	DiscountPercentage float64   `json:"discount_percentage"`
	SetupFee           float64   `json:"setup_fee"`
	BillingPeriod      string    `json:"billing_period"`
	TrialDays          int       `json:"trial_days"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewPlanResponse(plan *entity.SubscriptionPlan) *PlanResponse {
	return &PlanResponse{
		Id:                 plan.Id,
		PluginId:           plan.PluginId,
		Name:               plan.Name,
		Price:              plan.Price,
		Currency:           plan.Currency,
		DiscountPercentage: plan.DiscountPercentage,
		SetupFee:           plan.SetupFee,
		BillingPeriod:      string(plan.BillingPeriod),
		TrialDays:          plan.TrialDays,
		CreatedAt:          plan.CreatedAt,
	}
}
