// FILE: internal/service/plan_service.go
package service

import (
	"context"
	"time"

	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/pkg/billing"

	"github.com/google/uuid"
)

type IPlanService interface {
	GetPlans(ctx context.Context, pluginId uuid.UUID) ([]*dto.PlanResponse, error)
	GetOrderSummary(ctx context.Context, planId uuid.UUID) (*dto.OrderSummaryResponse, error)
	CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, planId uuid.UUID, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, planId uuid.UUID) error
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
	factory    *billing.Factory
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory) IPlanService {
	return &planService{
		uowFactory: uowFactory,
		factory:    billing.NewFactory(),
	}
}

func (s *planService) GetPlans(ctx context.Context, pluginId uuid.UUID) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.ByPluginID{PluginID: pluginId},
		specification.OrderBy{Field: "sort_order"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		res = append(res, dto.NewPlanResponse(p))
	}
	return res, nil
}

func (s *planService) GetOrderSummary(ctx context.Context, planId uuid.UUID) (*dto.OrderSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", planId.String())
	}

	total, breakdown := s.factory.CalculateBillingAmount(plan, true)

	return &dto.OrderSummaryResponse{
		PlanName:       plan.Name,
		BillingPeriod:  string(plan.BillingPeriod),
		BasePrice:      breakdown["basePrice"].(float64),
		DiscountAmount: breakdown["discountAmount"].(float64),
		SetupFee:       breakdown["setupFee"].(float64),
		Total:          total,
		Currency:       plan.Currency,
		TrialDays:      plan.TrialDays,
	}, nil
}

func (s *planService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	period := entity.BillingPeriod(req.BillingPeriod)
	switch period {
	case entity.BillingPeriodDaily, entity.BillingPeriodWeekly, entity.BillingPeriodMonthly,
		entity.BillingPeriodQuarterly, entity.BillingPeriodYearly, entity.BillingPeriodOneTime:
	default:
		return nil, apperrors.NewValidation("unknown billing period: %s", req.BillingPeriod)
	}
	if req.Price < 0 || req.SetupFee < 0 {
		return nil, apperrors.NewValidation("plan price and setup fee must be non-negative")
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, apperrors.NewValidation("discount percentage must be between 0 and 100")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	plugin, err := uow.PluginRepository().FindOne(ctx, specification.ByID{ID: req.PluginId})
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, apperrors.NewNotFound("plugin", req.PluginId.String())
	}

	plan := &entity.SubscriptionPlan{
		Id:                 uuid.New(),
		PluginId:           req.PluginId,
		Name:               req.Name,
		Price:              req.Price,
		Currency:           req.Currency,
		DiscountPercentage: req.DiscountPercentage,
		SetupFee:           req.SetupFee,
		BillingPeriod:      period,
		TrialDays:          req.TrialDays,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	if !plugin.HasPlan {
		plugin.HasPlan = true
		if err := uow.PluginRepository().Update(ctx, plugin); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return dto.NewPlanResponse(plan), nil
}

func (s *planService) UpdatePlan(ctx context.Context, planId uuid.UUID, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", planId.String())
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperrors.NewValidation("plan price must be non-negative")
		}
		plan.Price = *req.Price
	}
	if req.DiscountPercentage != nil {
		if *req.DiscountPercentage < 0 || *req.DiscountPercentage > 100 {
			return nil, apperrors.NewValidation("discount percentage must be between 0 and 100")
		}
		plan.DiscountPercentage = *req.DiscountPercentage
	}
	if req.SetupFee != nil {
		if *req.SetupFee < 0 {
			return nil, apperrors.NewValidation("setup fee must be non-negative")
		}
		plan.SetupFee = *req.SetupFee
	}
	if req.TrialDays != nil {
		plan.TrialDays = *req.TrialDays
	}

	if err := uow.SubscriptionRepository().UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(plan), nil
}

func (s *planService) DeletePlan(ctx context.Context, planId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return err
	}
	if plan == nil {
		return apperrors.NewNotFound("plan", planId.String())
	}

	// A plan with live subscriptions cannot be removed; it would orphan
	// renewal billing.
	count, err := uow.SubscriptionRepository().CountSubscriptions(ctx,
		specification.Filter("plan_id", planId),
		specification.SubscriptionActive{Now: time.Now()},
	)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewValidation("plan %s still has %d active subscriptions", planId, count)
	}

	return uow.SubscriptionRepository().DeletePlan(ctx, planId)
}
