package repository

import (
	"context"
	"errors"

	"restaurantgo/internal/model"

	"gorm.io/gorm"
)

var (
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrInvalidItemType     = errors.New("invalid item type")
)

// CatalogRepository resolves Meal and Package rows behind one interface.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func tableModel(t model.ItemType) (interface{}, error) {
	switch t {
	case model.ItemTypeMeal:
		return &model.Food{}, nil
	case model.ItemTypePackage:
		return &model.FoodPackage{}, nil
	}
	return nil, ErrInvalidItemType
}

// Resolve reads the current name, price and stock of one catalog item.
func (r *CatalogRepository) Resolve(ctx context.Context, tx *gorm.DB, t model.ItemType, id int64) (*model.CatalogItem, error) {
	q := r.conn(tx).WithContext(ctx)

	var item model.CatalogItem
	switch t {
	case model.ItemTypeMeal:
		var f model.Food
		if err := q.First(&f, id).Error; err != nil {
			return nil, notFound(err)
		}
		item = f.CatalogItem()
	case model.ItemTypePackage:
		var p model.FoodPackage
		if err := q.First(&p, id).Error; err != nil {
			return nil, notFound(err)
		}
		item = p.CatalogItem()
	default:
		return nil, ErrInvalidItemType
	}
	return &item, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCatalogItemNotFound
	}
	return err
}

// DecrementStock subtracts qty without a stock guard; the caller checks first.
func (r *CatalogRepository) DecrementStock(ctx context.Context, tx *gorm.DB, t model.ItemType, id int64, qty int) error {
	return r.adjust(ctx, tx, t, id, "available_quantity", -qty)
}

func (r *CatalogRepository) Restock(ctx context.Context, tx *gorm.DB, t model.ItemType, id int64, qty int) error {
	return r.adjust(ctx, tx, t, id, "available_quantity", qty)
}

func (r *CatalogRepository) IncrementPurchase(ctx context.Context, tx *gorm.DB, t model.ItemType, id int64, qty int) error {
	return r.adjust(ctx, tx, t, id, "total_purchase", qty)
}

func (r *CatalogRepository) adjust(ctx context.Context, tx *gorm.DB, t model.ItemType, id int64, column string, delta int) error {
	m, err := tableModel(t)
	if err != nil {
		return err
	}
	result := r.conn(tx).WithContext(ctx).
		Model(m).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCatalogItemNotFound
	}
	return nil
}

func (r *CatalogRepository) ListFoods(ctx context.Context, page, pageSize int) ([]*model.Food, int64, error) {
	var foods []*model.Food
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Food{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&foods).Error
	return foods, total, err
}

func (r *CatalogRepository) ListPackages(ctx context.Context, page, pageSize int) ([]*model.FoodPackage, int64, error) {
	var packages []*model.FoodPackage
	var total int64

	query := r.db.WithContext(ctx).Model(&model.FoodPackage{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&packages).Error
	return packages, total, err
}
