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

type OrderService struct {
	db          *gorm.DB
	ledger      *LedgerService
	orderRepo   *repository.OrderRepository
	catalogRepo *repository.CatalogRepository
}

func NewOrderService(db *gorm.DB, ledger *LedgerService) *OrderService {
	return &OrderService{
		db:          db,
		ledger:      ledger,
		orderRepo:   repository.NewOrderRepository(db),
		catalogRepo: repository.NewCatalogRepository(db),
	}
}

// GetOrder returns an order only to the user who placed it.
func (s *OrderService) GetOrder(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, page, pageSize int) ([]*model.Order, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.orderRepo.ListByUserID(ctx, userID, page, pageSize)
}

// CancelOrder cancels a Pending order, puts its items back in stock and
// refunds the wallet when the order was paid from it.
func (s *OrderService) CancelOrder(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionTo(order.Status, model.OrderStatusCancelled) {
		return nil, ErrOrderNotCancellable
	}

	extra := map[string]interface{}{}
	refund := order.PaymentStatus == model.PaymentStatusPaid
	if refund {
		extra["payment_status"] = model.PaymentStatusRefunded
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.OrderID, order.Status, model.OrderStatusCancelled, extra); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.catalogRepo.Restock(ctx, tx, item.FoodItemType, item.FoodItemID, item.Quantity); err != nil {
				return fmt.Errorf("restock %s %d: %w", item.FoodItemType, item.FoodItemID, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrOrderStatusInvalid) {
			return nil, ErrOrderNotCancellable
		}
		return nil, err
	}

	if refund {
		// the status guard above lets only one cancel reach this point
		if err := s.ledger.Deposit(ctx, order.UserID, order.TotalAmount, "Order Refund", order.OrderID); err != nil {
			logrus.WithError(err).WithField("order", order.OrderID).Error("refund after cancel failed")
			return nil, fmt.Errorf("%w: refund: %v", ErrInternal, err)
		}
		order.PaymentStatus = model.PaymentStatusRefunded
	}

	order.Status = model.OrderStatusCancelled
	logrus.WithFields(logrus.Fields{"order": order.OrderID, "refund": refund}).Info("order cancelled")
	return order, nil
}

// UpdateStatus advances the delivery workflow. Delivering an OnDelivery order settles it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, toStatus string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	extra := map[string]interface{}{}
	if toStatus == model.OrderStatusDelivered && order.PaymentType == model.PaymentTypeOnDelivery {
		extra["payment_status"] = model.PaymentStatusPaid
	}

	if err := s.orderRepo.UpdateStatus(ctx, nil, orderID, order.Status, toStatus, extra); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByOrderID(ctx, orderID)
}
