package contract

import (
	"context"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id uuid.UUID) error
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, subscription *entity.PluginSubscription) error
	// UpdateSubscription performs an optimistic-concurrency write: it matches
	// on (id, lock_version) and returns apperrors.ErrStaleUpdate when the row
	// changed since it was read.
	UpdateSubscription(ctx context.Context, subscription *entity.PluginSubscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.PluginSubscription, error)
	FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.PluginSubscription, error)
	CountSubscriptions(ctx context.Context, specs ...specification.Specification) (int64, error)
}
