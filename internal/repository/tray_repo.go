package repository

import (
	"context"
	"errors"

	"restaurantgo/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTrayNotFound     = errors.New("tray not found")
	ErrTrayItemNotFound = errors.New("tray item not found")
)

type TrayRepository struct {
	db *gorm.DB
}

func NewTrayRepository(db *gorm.DB) *TrayRepository {
	return &TrayRepository{db: db}
}

func (r *TrayRepository) GetByUserID(ctx context.Context, userID int64) (*model.Tray, error) {
	var tray model.Tray
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tray).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrayNotFound
		}
		return nil, err
	}
	return &tray, nil
}

// GetOrCreate returns the user's tray, creating it on first use.
func (r *TrayRepository) GetOrCreate(ctx context.Context, userID int64) (*model.Tray, error) {
	tray, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return tray, nil
	}
	if !errors.Is(err, ErrTrayNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&model.Tray{UserID: userID}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *TrayRepository) AddItem(ctx context.Context, item *model.TrayItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *TrayRepository) CountItems(ctx context.Context, trayID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TrayItem{}).Where("tray_id = ?", trayID).Count(&n).Error
	return n, err
}

func (r *TrayRepository) ListItems(ctx context.Context, trayID int64) ([]*model.TrayItem, error) {
	var items []*model.TrayItem
	err := r.db.WithContext(ctx).
		Where("tray_id = ?", trayID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// GetItemForUser finds a tray item only if it sits in the user's tray.
func (r *TrayRepository) GetItemForUser(ctx context.Context, userID, itemID int64) (*model.TrayItem, error) {
	var item model.TrayItem
	err := r.db.WithContext(ctx).
		Joins("JOIN trays ON trays.id = tray_items.tray_id").
		Where("tray_items.id = ? AND trays.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrayItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *TrayRepository) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.TrayItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *TrayRepository) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&model.TrayItem{}, itemID).Error
}

func (r *TrayRepository) ClearItems(ctx context.Context, trayID int64) error {
	return r.db.WithContext(ctx).Where("tray_id = ?", trayID).Delete(&model.TrayItem{}).Error
}
