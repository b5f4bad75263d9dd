package job

import (
	"context"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/infrastructure/mq"
	"restaurantgo/internal/model"
	"restaurantgo/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OutboxSender relays pending outbox rows to Kafka.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config, publisher mq.Publisher) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log := logrus.WithField("job", "outbox_sender")
	log.Info("started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled, exiting")
			return
		case <-s.stopCh:
			log.Info("stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		logrus.WithError(err).Error("outbox: load pending messages")
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	log := logrus.WithFields(logrus.Fields{
		"id":    msg.ID,
		"topic": msg.Topic,
		"key":   msg.MessageKey,
	})

	err := s.publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			log.WithError(err).Error("outbox: mark sent")
			return
		}
		log.Debug("outbox: message sent")
		return
	}

	log.WithError(err).WithField("retry_count", msg.RetryCount).Warn("outbox: publish failed")
	if err := s.outboxRepo.RecordFailure(ctx, msg.ID, s.cfg.Business.MaxRetryCount); err != nil {
		log.WithError(err).Error("outbox: record failure")
		return
	}
	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		log.Error("outbox: retries exhausted, message parked as FAILED")
	}
}
