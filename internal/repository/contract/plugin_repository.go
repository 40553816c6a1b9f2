package contract

import (
	"context"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PluginRepository interface {
	Create(ctx context.Context, plugin *entity.Plugin) error
	Update(ctx context.Context, plugin *entity.Plugin) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Plugin, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Plugin, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	CreateVersion(ctx context.Context, version *entity.PluginVersion) error
	FindVersions(ctx context.Context, pluginId uuid.UUID) ([]*entity.PluginVersion, error)
}
