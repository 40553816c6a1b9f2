package contract

import (
	"context"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/repository/specification"
)

type BillingRepository interface {
	Create(ctx context.Context, billing *entity.PluginBilling) error
	// Update rejects writes against paid records; billing history is
	// append-only once money has moved.
	Update(ctx context.Context, billing *entity.PluginBilling) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PluginBilling, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PluginBilling, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
