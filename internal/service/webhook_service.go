package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/infrastructure/lock"
	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WebhookResult tells the caller what a notification did. All three are
// acknowledged to the gateway with 200.
type WebhookResult int

const (
	WebhookCredited WebhookResult = iota + 1
	WebhookDuplicate
	WebhookIgnored
)

func (r WebhookResult) String() string {
	switch r {
	case WebhookCredited:
		return "credited"
	case WebhookDuplicate:
		return "duplicate"
	case WebhookIgnored:
		return "ignored"
	}
	return "unknown"
}

// WebhookService credits wallets from gateway payment notifications.
type WebhookService struct {
	db          *gorm.DB
	cfg         *config.Config
	ledger      *LedgerService
	gw          gateway.Client
	rdb         *redis.Client
	userRepo    *repository.UserRepository
	fundingRepo *repository.FundingRepository
	intentRepo  *repository.PaymentIntentRepository
	outboxRepo  *repository.OutboxRepository
}

func NewWebhookService(db *gorm.DB, rdb *redis.Client, cfg *config.Config, ledger *LedgerService, gw gateway.Client) *WebhookService {
	return &WebhookService{
		db:          db,
		cfg:         cfg,
		ledger:      ledger,
		gw:          gw,
		rdb:         rdb,
		userRepo:    repository.NewUserRepository(db),
		fundingRepo: repository.NewFundingRepository(db),
		intentRepo:  repository.NewPaymentIntentRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

// Handle authenticates a raw notification and reconciles the transaction it names.
func (s *WebhookService) Handle(ctx context.Context, rawBody []byte, signature, sourceIP string) (WebhookResult, error) {
	if !gateway.VerifySignature(s.cfg.Gateway.SecretKey, rawBody, signature) {
		logrus.WithField("ip", sourceIP).Warn("webhook rejected: bad signature")
		return 0, ErrForbidden
	}
	if !gateway.TrustedIP(s.cfg.Gateway.WebhookIPs, sourceIP) {
		logrus.WithField("ip", sourceIP).Warn("webhook rejected: untrusted ip")
		return 0, ErrForbidden
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.EventType != gateway.EventSuccessfulTransaction {
		return WebhookIgnored, nil
	}
	if event.EventData.TransactionReference == "" {
		return 0, fmt.Errorf("%w: missing transactionReference", ErrInvalidPayload)
	}

	return s.Reconcile(ctx, event.EventData.TransactionReference)
}

// Reconcile asks the gateway for the transaction and credits the wallet once
// per reference. Errors mean the caller should retry later.
func (s *WebhookService) Reconcile(ctx context.Context, ref string) (WebhookResult, error) {
	log := logrus.WithField("ref", ref)

	txn, err := s.gw.GetTransaction(ctx, ref)
	if err != nil {
		log.WithError(err).Error("gateway transaction lookup failed")
		return 0, fmt.Errorf("%w: lookup %s: %v", ErrGateway, ref, err)
	}
	if txn.PaymentStatus != gateway.StatusPaid {
		log.WithField("status", txn.PaymentStatus).Info("transaction not paid, skipping")
		return WebhookIgnored, nil
	}

	if done, err := s.alreadyFunded(ctx, ref); err != nil {
		return 0, err
	} else if done {
		return WebhookDuplicate, nil
	}

	if s.rdb != nil {
		l := lock.NewFundingLock(s.rdb, ref)
		if err := l.Lock(ctx, 100*time.Millisecond, 50); err != nil {
			return 0, fmt.Errorf("%w: funding lock %s: %v", ErrInternal, ref, err)
		}
		defer func() {
			if err := l.Unlock(context.Background()); err != nil {
				log.WithError(err).Warn("release funding lock")
			}
		}()

		// another delivery may have credited while we waited
		if done, err := s.alreadyFunded(ctx, ref); err != nil {
			return 0, err
		} else if done {
			return WebhookDuplicate, nil
		}
	}

	user, err := s.owner(ctx, ref, txn.Customer.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.WithField("email", txn.Customer.Email).Error("paid transaction has no matching user")
			return WebhookIgnored, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	fee := s.cfg.Gateway.Fee(txn.AmountPaid)
	net := txn.AmountPaid.Sub(fee)

	if err := s.ledger.Deposit(ctx, user.ID, net, "Wallet Funding", ref); err != nil {
		return 0, fmt.Errorf("%w: deposit: %v", ErrInternal, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funding := &model.Funding{
			UserID:  user.ID,
			Ref:     ref,
			Amount:  net,
			Fee:     fee,
			Status:  model.FundingStatusSuccessful,
			Gateway: s.cfg.Gateway.Name,
		}
		if err := s.fundingRepo.Create(ctx, tx, funding); err != nil {
			return err
		}
		if err := s.intentRepo.MarkCompleted(ctx, tx, ref); err != nil {
			return err
		}
		msg, err := model.NewOutboxMessage(s.cfg.Kafka.Topic.FundingCredited, ref, map[string]interface{}{
			"ref":     ref,
			"user_id": user.ID,
			"paid":    txn.AmountPaid.String(),
			"fee":     fee.String(),
			"net":     net.String(),
		})
		if err != nil {
			return err
		}
		return s.outboxRepo.Create(ctx, tx, msg)
	})
	if err != nil {
		// the wallet is already credited; a retry of this ref can credit it again
		log.WithError(err).WithField("user_id", user.ID).Error("funding record not written after deposit")
		return 0, fmt.Errorf("%w: funding record: %v", ErrInternal, err)
	}

	log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"paid":    txn.AmountPaid.String(),
		"fee":     fee.String(),
	}).Info("wallet funded")
	return WebhookCredited, nil
}

func (s *WebhookService) alreadyFunded(ctx context.Context, ref string) (bool, error) {
	existing, err := s.fundingRepo.GetByRef(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("%w: funding lookup: %v", ErrInternal, err)
	}
	return existing != nil, nil
}

// owner prefers the user who started the payment intent and falls back to
// the customer email the gateway reports.
func (s *WebhookService) owner(ctx context.Context, ref, email string) (*model.User, error) {
	intent, err := s.intentRepo.GetByTransactionRef(ctx, ref)
	if err == nil {
		return s.userRepo.GetByID(ctx, intent.UserID)
	}
	if !errors.Is(err, repository.ErrIntentNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, ErrUserNotFound
	}
	return s.userRepo.GetByEmail(ctx, email)
}
