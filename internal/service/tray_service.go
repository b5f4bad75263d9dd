package service

import (
	"context"
	"errors"
	"fmt"

	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TrayService struct {
	trayRepo *repository.TrayRepository
	catalog  *CatalogService
}

func NewTrayService(db *gorm.DB, catalog *CatalogService) *TrayService {
	return &TrayService{
		trayRepo: repository.NewTrayRepository(db),
		catalog:  catalog,
	}
}

// TrayItemView is a tray item with the catalog entry it points at, priced now.
type TrayItemView struct {
	*model.TrayItem
	Food model.CatalogItem `json:"food"`
}

// AddItem appends an item to the user's tray and returns how many items the
// tray holds. A zero quantity means one.
func (s *TrayService) AddItem(ctx context.Context, userID int64, itemType model.ItemType, itemID int64, quantity int) (int64, error) {
	if !itemType.Valid() {
		return 0, ErrInvalidItemType
	}
	if quantity < 0 {
		return 0, ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}

	if _, err := s.catalog.Resolve(ctx, itemType, itemID); err != nil {
		return 0, err
	}

	tray, err := s.trayRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get tray: %w", err)
	}

	item := &model.TrayItem{
		TrayID:       tray.ID,
		FoodItemID:   itemID,
		FoodItemType: itemType,
		Quantity:     quantity,
	}
	if err := s.trayRepo.AddItem(ctx, item); err != nil {
		return 0, fmt.Errorf("add tray item: %w", err)
	}

	return s.trayRepo.CountItems(ctx, tray.ID)
}

func (s *TrayService) IncreaseQuantity(ctx context.Context, userID, trayItemID int64) (int, error) {
	item, err := s.trayRepo.GetItemForUser(ctx, userID, trayItemID)
	if err != nil {
		return 0, err
	}

	item.Quantity++
	if err := s.trayRepo.SetQuantity(ctx, item.ID, item.Quantity); err != nil {
		return 0, fmt.Errorf("increase quantity: %w", err)
	}
	return item.Quantity, nil
}

// DecreaseQuantity lowers the quantity by one; at zero the item leaves the tray.
func (s *TrayService) DecreaseQuantity(ctx context.Context, userID, trayItemID int64) (int, error) {
	item, err := s.trayRepo.GetItemForUser(ctx, userID, trayItemID)
	if err != nil {
		return 0, err
	}

	item.Quantity--
	if item.Quantity <= 0 {
		if err := s.trayRepo.DeleteItem(ctx, item.ID); err != nil {
			return 0, fmt.Errorf("remove tray item: %w", err)
		}
		return 0, nil
	}

	if err := s.trayRepo.SetQuantity(ctx, item.ID, item.Quantity); err != nil {
		return 0, fmt.Errorf("decrease quantity: %w", err)
	}
	return item.Quantity, nil
}

func (s *TrayService) ListItems(ctx context.Context, userID int64) ([]TrayItemView, error) {
	tray, err := s.trayRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTrayNotFound) {
			return nil, ErrTrayNotFound
		}
		return nil, err
	}

	items, err := s.trayRepo.ListItems(ctx, tray.ID)
	if err != nil {
		return nil, err
	}

	views := make([]TrayItemView, 0, len(items))
	for _, item := range items {
		food, err := s.catalog.Resolve(ctx, item.FoodItemType, item.FoodItemID)
		if err != nil {
			if errors.Is(err, ErrCatalogItemNotFound) {
				// catalog entry removed after the item was added
				logrus.WithFields(logrus.Fields{
					"tray_item_id": item.ID,
					"type":         item.FoodItemType,
					"food_item_id": item.FoodItemID,
				}).Warn("tray item points at a missing catalog entry")
				continue
			}
			return nil, err
		}
		views = append(views, TrayItemView{TrayItem: item, Food: *food})
	}
	return views, nil
}
