package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"
	"restaurantgo/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FundingService starts wallet top-ups through the payment gateway. The
// wallet itself is only credited by WebhookService once the gateway confirms.
type FundingService struct {
	cfg        *config.Config
	gw         gateway.Client
	userRepo   *repository.UserRepository
	intentRepo *repository.PaymentIntentRepository
	now        func() time.Time
}

func NewFundingService(db *gorm.DB, cfg *config.Config, gw gateway.Client) *FundingService {
	return &FundingService{
		cfg:        cfg,
		gw:         gw,
		userRepo:   repository.NewUserRepository(db),
		intentRepo: repository.NewPaymentIntentRepository(db),
		now:        time.Now,
	}
}

// InitiateFunding opens a gateway transaction for amount and records a pending intent.
func (s *FundingService) InitiateFunding(ctx context.Context, userID int64, amount decimal.Decimal) (*model.PaymentIntent, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	paymentRef := idgen.GeneratePaymentRef()
	resp, err := s.gw.InitTransaction(ctx, gateway.InitTransactionRequest{
		Amount:             amount,
		CustomerName:       user.FullName(),
		CustomerEmail:      user.Email,
		PaymentReference:   paymentRef,
		PaymentDescription: "Wallet Funding",
		CurrencyCode:       s.cfg.Gateway.Currency,
	})
	if err != nil {
		logrus.WithError(err).WithField("payment_ref", paymentRef).Error("init transaction failed")
		return nil, fmt.Errorf("%w: init transaction: %v", ErrGateway, err)
	}

	timeout := time.Duration(s.cfg.Business.IntentTimeoutMinutes) * time.Minute
	intent := &model.PaymentIntent{
		UserID:               user.ID,
		PaymentReference:     paymentRef,
		TransactionReference: resp.TransactionReference,
		Amount:               amount,
		Status:               model.IntentStatusPending,
		CheckoutURL:          resp.CheckoutURL,
		ExpiredAt:            s.now().Add(timeout),
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"payment_ref":     paymentRef,
		"transaction_ref": resp.TransactionReference,
		"amount":          amount.String(),
	}).Info("funding initiated")
	return intent, nil
}

// ChargeCard pays an open intent with card details.
func (s *FundingService) ChargeCard(ctx context.Context, userID int64, transactionRef string, card gateway.Card) (*gateway.CardChargeResponse, error) {
	if _, err := s.openIntent(ctx, userID, transactionRef); err != nil {
		return nil, err
	}
	if !s.cfg.Gateway.Machine {
		if err := ValidateCard(card, s.now()); err != nil {
			return nil, err
		}
	}

	resp, err := s.gw.ChargeCard(ctx, gateway.CardChargeRequest{
		TransactionReference: transactionRef,
		Card:                 card,
	})
	if err != nil {
		logrus.WithError(err).WithField("transaction_ref", transactionRef).Error("card charge failed")
		return nil, fmt.Errorf("%w: charge card: %v", ErrGateway, err)
	}
	return resp, nil
}

// PayWithTransfer returns the account the user should transfer to for an open intent.
func (s *FundingService) PayWithTransfer(ctx context.Context, userID int64, transactionRef, bankCode string) (*gateway.BankTransferResponse, error) {
	if _, err := s.openIntent(ctx, userID, transactionRef); err != nil {
		return nil, err
	}

	resp, err := s.gw.InitBankTransfer(ctx, transactionRef, bankCode)
	if err != nil {
		logrus.WithError(err).WithField("transaction_ref", transactionRef).Error("bank transfer init failed")
		return nil, fmt.Errorf("%w: bank transfer: %v", ErrGateway, err)
	}
	return resp, nil
}

func (s *FundingService) openIntent(ctx context.Context, userID int64, transactionRef string) (*model.PaymentIntent, error) {
	intent, err := s.intentRepo.GetByTransactionRef(ctx, transactionRef)
	if err != nil {
		return nil, err
	}
	if intent.UserID != userID {
		return nil, ErrIntentNotFound
	}
	if intent.Status != model.IntentStatusPending || s.now().After(intent.ExpiredAt) {
		return nil, ErrIntentClosed
	}
	return intent, nil
}

// ValidateCard checks the number with Luhn, that the card has not expired by
// now, and that the CVV is 3 or 4 digits.
func ValidateCard(card gateway.Card, now time.Time) error {
	number := strings.ReplaceAll(card.Number, " ", "")
	if len(number) < 12 || len(number) > 19 || !digits(number) || !luhn(number) {
		return fmt.Errorf("%w: card number", ErrInvalidCard)
	}

	if (len(card.CVV) != 3 && len(card.CVV) != 4) || !digits(card.CVV) {
		return fmt.Errorf("%w: cvv", ErrInvalidCard)
	}

	month, err := strconv.Atoi(card.ExpiryMonth)
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("%w: expiry month", ErrInvalidCard)
	}
	year, err := strconv.Atoi(card.ExpiryYear)
	if err != nil || year < 0 {
		return fmt.Errorf("%w: expiry year", ErrInvalidCard)
	}
	if len(card.ExpiryYear) <= 2 {
		year += 2000
	}

	// valid through the last day of the expiry month
	end := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(end) {
		return fmt.Errorf("%w: expired", ErrInvalidCard)
	}
	return nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
