package mapper

import (
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/model"
)

type PluginMapper struct{}

func NewPluginMapper() *PluginMapper {
	return &PluginMapper{}
}

func (m *PluginMapper) ToEntity(p *model.Plugin) *entity.Plugin {
	if p == nil {
		return nil
	}
	versions := make([]entity.PluginVersion, 0, len(p.Versions))
	for _, v := range p.Versions {
		if v != nil {
			versions = append(versions, *m.VersionToEntity(v))
		}
	}
	return &entity.Plugin{
		Id:               p.Id,
		TenantId:         p.TenantId,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		Status:           entity.PluginStatus(p.Status),
		HasPlan:          p.HasPlan,
		CurrentVersionId: p.CurrentVersionId,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Versions:         versions,
	}
}

func (m *PluginMapper) ToModel(p *entity.Plugin) *model.Plugin {
	if p == nil {
		return nil
	}
	return &model.Plugin{
		Id:               p.Id,
		TenantId:         p.TenantId,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		Status:           string(p.Status),
		HasPlan:          p.HasPlan,
		CurrentVersionId: p.CurrentVersionId,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (m *PluginMapper) VersionToEntity(v *model.PluginVersion) *entity.PluginVersion {
	if v == nil {
		return nil
	}
	return &entity.PluginVersion{
		Id:         v.Id,
		PluginId:   v.PluginId,
		Number:     v.Number,
		Changelog:  v.Changelog,
		ReleasedAt: v.ReleasedAt,
	}
}

func (m *PluginMapper) VersionToModel(v *entity.PluginVersion) *model.PluginVersion {
	if v == nil {
		return nil
	}
	return &model.PluginVersion{
		Id:         v.Id,
		PluginId:   v.PluginId,
		Number:     v.Number,
		Changelog:  v.Changelog,
		ReleasedAt: v.ReleasedAt,
	}
}
