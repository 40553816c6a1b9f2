// FILE: internal/service/access_service.go
package service

import (
	"context"
	"time"

	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/memory"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
)

type IAccessService interface {
	// CheckAccess answers whether the caller may use a plugin. A missing
	// subscription is a structured denial, never an error.
	CheckAccess(ctx context.Context, req *dto.AccessCheckRequest) (*dto.AccessDecisionResponse, error)
}

type accessService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.AccessCache
}

func NewAccessService(uowFactory unitofwork.RepositoryFactory, cache *memory.AccessCache) IAccessService {
	return &accessService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func (s *accessService) CheckAccess(ctx context.Context, req *dto.AccessCheckRequest) (*dto.AccessDecisionResponse, error) {
	if cached, ok := s.cache.Get(req.PluginId, req.TenantId, req.OrganizationId, req.UserId); ok {
		return decisionResponse(cached), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	plugin, err := uow.PluginRepository().FindOne(ctx, specification.ByID{ID: req.PluginId})
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, apperrors.NewNotFound("plugin", req.PluginId.String())
	}

	// Free plugins are never gated.
	if !plugin.HasPlan {
		decision := &memory.AccessDecision{Granted: true}
		s.cache.Set(req.PluginId, req.TenantId, req.OrganizationId, req.UserId, decision)
		return decisionResponse(decision), nil
	}

	decision, err := s.evaluate(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	s.cache.Set(req.PluginId, req.TenantId, req.OrganizationId, req.UserId, decision)
	return decisionResponse(decision), nil
}

// evaluate walks scopes narrowest first: a USER grant wins over an
// ORGANIZATION grant, which wins over a TENANT grant.
func (s *accessService) evaluate(ctx context.Context, uow unitofwork.UnitOfWork, req *dto.AccessCheckRequest) (*memory.AccessDecision, error) {
	now := time.Now()
	base := []specification.Specification{
		specification.ByPluginID{PluginID: req.PluginId},
		specification.ByTenantID{TenantID: req.TenantId},
		specification.SubscriptionActive{Now: now},
	}

	if req.UserId != nil {
		specs := append([]specification.Specification{}, base...)
		specs = append(specs,
			specification.ByScope{Scope: entity.ScopeUser},
			specification.BySubscriberID{SubscriberID: *req.UserId},
		)
		sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specs...)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return granted(sub), nil
		}
	}

	if req.OrganizationId != nil {
		specs := append([]specification.Specification{}, base...)
		specs = append(specs,
			specification.ByScope{Scope: entity.ScopeOrganization},
			specification.ByOrganizationID{OrganizationID: *req.OrganizationId},
		)
		sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specs...)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return granted(sub), nil
		}
	}

	specs := append([]specification.Specification{}, base...)
	specs = append(specs, specification.ByScope{Scope: entity.ScopeTenant})
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		return granted(sub), nil
	}

	return &memory.AccessDecision{Granted: false}, nil
}

func granted(sub *entity.PluginSubscription) *memory.AccessDecision {
	id := sub.Id
	return &memory.AccessDecision{
		Granted:        true,
		Scope:          sub.Scope,
		SubscriptionId: &id,
	}
}

func decisionResponse(d *memory.AccessDecision) *dto.AccessDecisionResponse {
	return &dto.AccessDecisionResponse{
		Granted:              d.Granted,
		Scope:                string(d.Scope),
		SubscriptionId:       d.SubscriptionId,
		SubscriptionRequired: !d.Granted,
	}
}
