package service

import (
	"errors"
	"fmt"

	"restaurantgo/internal/repository"
)

// Validation errors.
var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrInvalidItemType    = repository.ErrInvalidItemType
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidCard        = errors.New("invalid card details")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Not-found errors.
var (
	ErrUserNotFound        = repository.ErrUserNotFound
	ErrTrayNotFound        = errors.New("this user has no tray")
	ErrTrayItemNotFound    = repository.ErrTrayItemNotFound
	ErrCatalogItemNotFound = repository.ErrCatalogItemNotFound
	ErrOrderNotFound       = repository.ErrOrderNotFound
	ErrIntentNotFound      = repository.ErrIntentNotFound
)

// Business-rule errors.
var (
	ErrEmptyTray           = errors.New("tray is empty")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrPaymentInsufficient = errors.New("insufficient wallet balance")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrOrderStatusInvalid  = repository.ErrOrderStatusInvalid
	ErrIntentClosed        = errors.New("payment intent is no longer pending")
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrGateway   = errors.New("payment gateway unavailable")
	ErrInternal  = errors.New("internal error")
)

// InsufficientStockError names the item whose stock cannot cover the request.
type InsufficientStockError struct {
	Item      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
