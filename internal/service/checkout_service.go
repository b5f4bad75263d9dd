package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/infrastructure/mail"
	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"
	"restaurantgo/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CheckoutService struct {
	db          *gorm.DB
	cfg         *config.Config
	ledger      *LedgerService
	mailer      mail.Sender
	userRepo    *repository.UserRepository
	addressRepo *repository.AddressRepository
	trayRepo    *repository.TrayRepository
	catalogRepo *repository.CatalogRepository
	orderRepo   *repository.OrderRepository
	outboxRepo  *repository.OutboxRepository
}

func NewCheckoutService(db *gorm.DB, cfg *config.Config, ledger *LedgerService, mailer mail.Sender) *CheckoutService {
	return &CheckoutService{
		db:          db,
		cfg:         cfg,
		ledger:      ledger,
		mailer:      mailer,
		userRepo:    repository.NewUserRepository(db),
		addressRepo: repository.NewAddressRepository(db),
		trayRepo:    repository.NewTrayRepository(db),
		catalogRepo: repository.NewCatalogRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type CheckoutRequest struct {
	UserID      int64
	AddressID   int64
	PaymentType model.PaymentType
}

// Checkout turns the user's tray into an order.
//
// Steps run in order with no enclosing transaction: stock is decremented per
// item as it is checked, before payment. A later failure (insufficient stock
// on a later item, low funds) leaves the earlier decrements in place.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*model.Order, error) {
	if !req.PaymentType.Valid() {
		return nil, ErrInvalidPaymentType
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetForUser(ctx, req.UserID, req.AddressID)
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, ErrInvalidAddress
		}
		return nil, err
	}

	items, err := s.trayItems(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyTray
	}

	total, err := s.reserveStock(ctx, items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderID:         idgen.GenerateOrderRef(),
		UserID:          user.ID,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusUnPaid,
		PaymentType:     req.PaymentType,
		DeliveryAddress: address.Address,
	}

	if req.PaymentType == model.PaymentTypeInstant {
		outcome, err := s.ledger.Debit(ctx, user.ID, total, "Food Purchase", order.OrderID)
		switch outcome {
		case Debited:
			order.PaymentStatus = model.PaymentStatusPaid
		case LowFunds:
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"total":   total.String(),
				"order":   order.OrderID,
			}).Warn("checkout refused: low funds, reserved stock not released")
			return nil, ErrPaymentInsufficient
		default:
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	if err := s.createOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrInternal, err)
	}

	for _, item := range items {
		if err := s.catalogRepo.IncrementPurchase(ctx, nil, item.FoodItemType, item.FoodItemID, item.Quantity); err != nil {
			return nil, fmt.Errorf("%w: purchase counter: %v", ErrInternal, err)
		}
		orderItem := model.OrderItem{
			OrderID:      order.ID,
			FoodItemID:   item.FoodItemID,
			FoodItemType: item.FoodItemType,
			Quantity:     item.Quantity,
		}
		if err := s.orderRepo.CreateItem(ctx, nil, &orderItem); err != nil {
			return nil, fmt.Errorf("%w: order item: %v", ErrInternal, err)
		}
		order.Items = append(order.Items, orderItem)
	}

	if err := s.trayRepo.ClearItems(ctx, items[0].TrayID); err != nil {
		return nil, fmt.Errorf("%w: clear tray: %v", ErrInternal, err)
	}

	logrus.WithFields(logrus.Fields{
		"order":        order.OrderID,
		"user_id":      user.ID,
		"total":        total.String(),
		"payment_type": order.PaymentType,
	}).Info("order placed")

	go s.notify(user, order)

	return order, nil
}

func (s *CheckoutService) trayItems(ctx context.Context, userID int64) ([]*model.TrayItem, error) {
	tray, err := s.trayRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTrayNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.trayRepo.ListItems(ctx, tray.ID)
}

// reserveStock checks and decrements each item in turn and sums
// quantity times the current price.
func (s *CheckoutService) reserveStock(ctx context.Context, items []*model.TrayItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		food, err := s.catalogRepo.Resolve(ctx, nil, item.FoodItemType, item.FoodItemID)
		if err != nil {
			return decimal.Zero, err
		}
		if item.Quantity > food.AvailableQuantity {
			return decimal.Zero, &InsufficientStockError{
				Item:      food.Name,
				Requested: item.Quantity,
				Available: food.AvailableQuantity,
			}
		}
		if err := s.catalogRepo.DecrementStock(ctx, nil, item.FoodItemType, item.FoodItemID, item.Quantity); err != nil {
			return decimal.Zero, fmt.Errorf("%w: decrement stock: %v", ErrInternal, err)
		}
		total = total.Add(food.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

func (s *CheckoutService) createOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		msg, err := model.NewOutboxMessage(s.cfg.Kafka.Topic.OrderCreated, order.OrderID, map[string]interface{}{
			"order_id":       order.OrderID,
			"user_id":        order.UserID,
			"total_amount":   order.TotalAmount.String(),
			"payment_status": order.PaymentStatus,
			"payment_type":   order.PaymentType,
			"created_at":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		return s.outboxRepo.Create(ctx, tx, msg)
	})
}

// notify emails the customer and the operator. Failures are only logged.
func (s *CheckoutService) notify(user *model.User, order *model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	customer := fmt.Sprintf("Hello %s,\n\nYour order %s has been placed. Total: %s %s.\nPayment: %s (%s).\n",
		user.FullName(), order.OrderID, s.cfg.Gateway.Currency, order.TotalAmount.StringFixed(2),
		order.PaymentType, order.PaymentStatus)
	if err := s.mailer.Send(ctx, "Order Confirmation", customer, user.Email); err != nil {
		logrus.WithError(err).WithField("order", order.OrderID).Error("send order confirmation")
	}

	if s.cfg.Mail.OperatorEmail == "" {
		return
	}
	operator := fmt.Sprintf("New order %s from %s (%s).\nTotal: %s %s\nDeliver to: %s\n",
		order.OrderID, user.FullName(), user.Email, s.cfg.Gateway.Currency,
		order.TotalAmount.StringFixed(2), order.DeliveryAddress)
	if err := s.mailer.Send(ctx, "New Order", operator, s.cfg.Mail.OperatorEmail); err != nil {
		logrus.WithError(err).WithField("order", order.OrderID).Error("send operator notification")
	}
}
