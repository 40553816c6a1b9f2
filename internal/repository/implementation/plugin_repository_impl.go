package implementation

import (
	"context"
	"errors"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/mapper"
	"plugin-billing-be/internal/model"
	"plugin-billing-be/internal/repository/contract"
	"plugin-billing-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PluginRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PluginMapper
}

func NewPluginRepository(db *gorm.DB) contract.PluginRepository {
	return &PluginRepositoryImpl{
		db:     db,
		mapper: mapper.NewPluginMapper(),
	}
}

func (r *PluginRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PluginRepositoryImpl) Create(ctx context.Context, plugin *entity.Plugin) error {
	m := r.mapper.ToModel(plugin)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*plugin = *r.mapper.ToEntity(m)
	return nil
}

func (r *PluginRepositoryImpl) Update(ctx context.Context, plugin *entity.Plugin) error {
	m := r.mapper.ToModel(plugin)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*plugin = *r.mapper.ToEntity(m)
	return nil
}

func (r *PluginRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Plugin{}, id).Error
}

func (r *PluginRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Plugin, error) {
	var m model.Plugin
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	query = query.Preload("Versions")
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PluginRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Plugin, error) {
	var models []*model.Plugin
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Plugin, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *PluginRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Plugin{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PluginRepositoryImpl) CreateVersion(ctx context.Context, version *entity.PluginVersion) error {
	m := r.mapper.VersionToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.VersionToEntity(m)
	return nil
}

func (r *PluginRepositoryImpl) FindVersions(ctx context.Context, pluginId uuid.UUID) ([]*entity.PluginVersion, error) {
	var models []*model.PluginVersion
	err := r.db.WithContext(ctx).
		Where("plugin_id = ?", pluginId).
		Order("released_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	versions := make([]*entity.PluginVersion, len(models))
	for i, m := range models {
		versions[i] = r.mapper.VersionToEntity(m)
	}
	return versions, nil
}
