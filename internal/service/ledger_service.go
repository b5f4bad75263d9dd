package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DebitOutcome is the result of a Debit. Checkout branches on it.
type DebitOutcome int

const (
	Debited DebitOutcome = iota + 1
	LowFunds
	DebitError
)

func (o DebitOutcome) String() string {
	switch o {
	case Debited:
		return "Debited"
	case LowFunds:
		return "LowFunds"
	case DebitError:
		return "Error"
	}
	return "Unknown"
}

var errLowFunds = errors.New("low funds")

// LedgerService owns every wallet balance mutation. Each one runs in a
// serializable transaction holding the user's row lock, and appends exactly
// one WalletSummary and one wallet event.
type LedgerService struct {
	db          *gorm.DB
	cfg         *config.Config
	userRepo    *repository.UserRepository
	summaryRepo *repository.WalletSummaryRepository
	outboxRepo  *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:          db,
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(db),
		summaryRepo: repository.NewWalletSummaryRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

func serializable() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

// Debit takes amount from the wallet. A negative amount or one above the
// balance is LowFunds with nothing written; any other failure is DebitError
// with everything rolled back.
func (s *LedgerService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description, orderRef string) (DebitOutcome, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if amount.IsNegative() || amount.GreaterThan(user.WalletBalance) {
			return errLowFunds
		}
		return s.apply(ctx, tx, user, amount, user.WalletBalance.Sub(amount), model.SummaryKindDebit, description, orderRef)
	}, serializable())

	switch {
	case err == nil:
		return Debited, nil
	case errors.Is(err, errLowFunds):
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount.String(),
			"order":   orderRef,
		}).Info("debit refused: low funds")
		return LowFunds, nil
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount.String(),
			"order":   orderRef,
		}).Error("debit failed")
		return DebitError, fmt.Errorf("debit user %d: %w", userID, err)
	}
}

// Deposit credits amount to the wallet. It fails only on a negative amount or
// an unexpected error, in which case nothing is written.
func (s *LedgerService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, description, orderRef string) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		return s.apply(ctx, tx, user, amount, user.WalletBalance.Add(amount), model.SummaryKindCredit, description, orderRef)
	}, serializable())
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount.String(),
			"order":   orderRef,
		}).Error("deposit failed")
		return fmt.Errorf("deposit user %d: %w", userID, err)
	}
	return nil
}

func (s *LedgerService) apply(ctx context.Context, tx *gorm.DB, user *model.User, amount, after decimal.Decimal, kind, description, orderRef string) error {
	if err := s.userRepo.SetBalance(ctx, tx, user.ID, after); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	summary := &model.WalletSummary{
		UserID:          user.ID,
		Amount:          amount,
		Description:     description,
		PreviousBalance: user.WalletBalance,
		AfterBalance:    after,
		Kind:            kind,
		Status:          model.SummaryStatusSuccessful,
		OrderID:         orderRef,
	}
	if err := s.summaryRepo.Create(ctx, tx, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	msg, err := model.NewOutboxMessage(s.cfg.Kafka.Topic.WalletEvent, strconv.FormatInt(user.ID, 10), map[string]interface{}{
		"user_id":          user.ID,
		"kind":             kind,
		"amount":           amount.String(),
		"previous_balance": user.WalletBalance.String(),
		"after_balance":    after.String(),
		"description":      description,
		"order_id":         orderRef,
		"at":               time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

func (s *LedgerService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.WalletBalance, nil
}

func (s *LedgerService) Summaries(ctx context.Context, userID int64, page, pageSize int) ([]*model.WalletSummary, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.summaryRepo.ListByUserID(ctx, userID, page, pageSize)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
