package implementation

import (
	"context"
	"errors"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/mapper"
	"plugin-billing-be/internal/model"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/contract"
	"plugin-billing-be/internal/repository/specification"

	"gorm.io/gorm"
)

type BillingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewBillingRepository(db *gorm.DB) contract.BillingRepository {
	return &BillingRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *BillingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BillingRepositoryImpl) Create(ctx context.Context, billing *entity.PluginBilling) error {
	m := r.mapper.ToModel(billing)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*billing = *r.mapper.ToEntity(m)
	return nil
}

// Update refuses to touch paid rows: billing records are immutable once
// money has moved, status changes arrive only through new events.
func (r *BillingRepositoryImpl) Update(ctx context.Context, billing *entity.PluginBilling) error {
	var current model.PluginBilling
	if err := r.db.WithContext(ctx).First(&current, "id = ?", billing.Id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("billing", billing.Id.String())
		}
		return err
	}
	if current.Status == string(entity.BillingStatusPaid) {
		return apperrors.NewValidation("billing %s is paid and immutable", billing.Id)
	}

	m := r.mapper.ToModel(billing)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*billing = *r.mapper.ToEntity(m)
	return nil
}

func (r *BillingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PluginBilling, error) {
	var m model.PluginBilling
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BillingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PluginBilling, error) {
	var models []*model.PluginBilling
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PluginBilling, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *BillingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PluginBilling{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
