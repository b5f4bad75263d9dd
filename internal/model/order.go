package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

var ValidStatusTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusDelivered},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

const (
	PaymentStatusUnPaid   = "UnPaid"
	PaymentStatusPaid     = "Paid"
	PaymentStatusRefunded = "Refunded"
)

// PaymentType decides when the wallet is charged.
type PaymentType string

const (
	PaymentTypeInstant    PaymentType = "Instant"
	PaymentTypeOnDelivery PaymentType = "OnDelivery"
)

func (p PaymentType) Valid() bool {
	return p == PaymentTypeInstant || p == PaymentTypeOnDelivery
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_id"`
	UserID          int64           `gorm:"index;not null" json:"user_id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          string          `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentType     PaymentType     `gorm:"type:varchar(20);not null" json:"payment_type"`
	DeliveryAddress string          `gorm:"type:varchar(255);not null" json:"delivery_address"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is the immutable snapshot of a tray item taken at checkout.
type OrderItem struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64     `gorm:"index;not null" json:"order_id"`
	FoodItemID   int64     `gorm:"not null" json:"food_item_id"`
	FoodItemType ItemType  `gorm:"type:varchar(16);not null" json:"food_item_type"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
