package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType tags which catalog table a tray or order item points at.
type ItemType string

const (
	ItemTypeMeal    ItemType = "Meal"
	ItemTypePackage ItemType = "Package"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeMeal || t == ItemTypePackage
}

type Food struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"type:varchar(128);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	AvailableQuantity int             `gorm:"not null;default:0" json:"available_quantity"`
	TotalPurchase     int             `gorm:"not null;default:0" json:"total_purchase"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Food) TableName() string {
	return "foods"
}

type FoodPackage struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"type:varchar(128);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_price"`
	AvailableQuantity int             `gorm:"not null;default:0" json:"available_quantity"`
	TotalPurchase     int             `gorm:"not null;default:0" json:"total_purchase"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FoodPackage) TableName() string {
	return "food_packages"
}

// CatalogItem is the type-independent view of a Food or FoodPackage.
type CatalogItem struct {
	ID                int64           `json:"id"`
	Type              ItemType        `json:"type"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"available_quantity"`
}

func (f *Food) CatalogItem() CatalogItem {
	return CatalogItem{
		ID:                f.ID,
		Type:              ItemTypeMeal,
		Name:              f.Name,
		Price:             f.Price,
		AvailableQuantity: f.AvailableQuantity,
	}
}

func (p *FoodPackage) CatalogItem() CatalogItem {
	return CatalogItem{
		ID:                p.ID,
		Type:              ItemTypePackage,
		Name:              p.Name,
		Price:             p.Price,
		AvailableQuantity: p.AvailableQuantity,
	}
}

type Tray struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"uniqueIndex;not null" json:"user_id"`
	Items     []TrayItem `gorm:"foreignKey:TrayID" json:"items,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Tray) TableName() string {
	return "trays"
}

type TrayItem struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TrayID       int64     `gorm:"index;not null" json:"tray_id"`
	FoodItemID   int64     `gorm:"not null" json:"food_item_id"`
	FoodItemType ItemType  `gorm:"type:varchar(16);not null" json:"food_item_type"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TrayItem) TableName() string {
	return "tray_items"
}
