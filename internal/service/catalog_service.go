package service

import (
	"context"

	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"

	"gorm.io/gorm"
)

// CatalogService resolves Meal and Package items to one shape.
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{catalogRepo: repository.NewCatalogRepository(db)}
}

func (s *CatalogService) Resolve(ctx context.Context, t model.ItemType, id int64) (*model.CatalogItem, error) {
	if !t.Valid() {
		return nil, ErrInvalidItemType
	}
	return s.catalogRepo.Resolve(ctx, nil, t, id)
}

func (s *CatalogService) ListMeals(ctx context.Context, page, pageSize int) ([]*model.Food, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.catalogRepo.ListFoods(ctx, page, pageSize)
}

func (s *CatalogService) ListPackages(ctx context.Context, page, pageSize int) ([]*model.FoodPackage, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.catalogRepo.ListPackages(ctx, page, pageSize)
}
