package converter

import (
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
)

type ProductInfoConverter struct{}

func (ProductInfoConverter) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	if entity == nil {
		return nil
	}

	return &ProductInfoRedisModel{
		ID:           entity.ID,
		Name:         entity.Name,
		CategoryName: entity.CategoryName,
		Price:        entity.Price,
		IsActive:     entity.IsActive,
	}
}

func (ProductInfoConverter) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	if model == nil {
		return nil
	}

	return &usecase.ProductInfo{
		ID:           model.ID,
		Name:         model.Name,
		CategoryName: model.CategoryName,
		Price:        model.Price,
		IsActive:     model.IsActive,
	}
}

func (c ProductInfoConverter) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	if entities == nil {
		return nil
	}

	models := make([]ProductInfoRedisModel, len(entities))
	for i := range entities {
		models[i] = *c.ToRedisModel(&entities[i])
	}

	return models
}

func (c ProductInfoConverter) ToArrUseCase(models []ProductInfoRedisModel) []usecase.ProductInfo {
	if models == nil {
		return nil
	}

	entities := make([]usecase.ProductInfo, len(models))
	for i := range models {
		entities[i] = *c.ToUseCase(&models[i])
	}

	return entities
}
