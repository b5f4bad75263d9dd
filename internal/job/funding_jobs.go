package job

import (
	"context"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/repository"
	"restaurantgo/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Reconciler settles one gateway transaction. *service.WebhookService implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, ref string) (service.WebhookResult, error)
}

// FundingReconcileJob asks the gateway about intents that have been pending
// for a while, so a lost webhook does not leave a paid top-up uncredited.
type FundingReconcileJob struct {
	intentRepo *repository.PaymentIntentRepository
	reconciler Reconciler
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewFundingReconcileJob(db *gorm.DB, cfg *config.Config, reconciler Reconciler) *FundingReconcileJob {
	return &FundingReconcileJob{
		intentRepo: repository.NewPaymentIntentRepository(db),
		reconciler: reconciler,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   time.Minute,
		batchSize:  50,
	}
}

func (j *FundingReconcileJob) Start(ctx context.Context) {
	log := logrus.WithField("job", "funding_reconcile")
	log.Info("started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Info("stopped")
			return
		case <-ticker.C:
			j.reconcileStale(ctx)
		}
	}
}

func (j *FundingReconcileJob) Stop() {
	close(j.stopCh)
}

func (j *FundingReconcileJob) reconcileStale(ctx context.Context) {
	before := time.Now().Add(-time.Duration(j.cfg.Business.ReconcileAfterMinutes) * time.Minute)
	intents, err := j.intentRepo.GetStalePending(ctx, before, j.batchSize)
	if err != nil {
		logrus.WithError(err).Error("reconcile: load stale intents")
		return
	}
	if len(intents) == 0 {
		return
	}

	logrus.WithField("count", len(intents)).Info("reconcile: checking stale intents")
	for _, intent := range intents {
		log := logrus.WithFields(logrus.Fields{
			"ref":     intent.TransactionReference,
			"user_id": intent.UserID,
		})
		result, err := j.reconciler.Reconcile(ctx, intent.TransactionReference)
		if err != nil {
			log.WithError(err).Warn("reconcile: failed, will retry")
			continue
		}
		if result == service.WebhookCredited {
			log.Info("reconcile: credited missed payment")
		}
	}
}

// IntentExpiryJob marks pending intents past their deadline as EXPIRED on a cron schedule.
type IntentExpiryJob struct {
	intentRepo *repository.PaymentIntentRepository
	spec       string
	cron       *cron.Cron
	now        func() time.Time
}

func NewIntentExpiryJob(db *gorm.DB, cfg *config.Config) *IntentExpiryJob {
	spec := cfg.Business.IntentExpirySpec
	if spec == "" {
		spec = "*/5 * * * *"
	}
	return &IntentExpiryJob{
		intentRepo: repository.NewPaymentIntentRepository(db),
		spec:       spec,
		cron:       cron.New(),
		now:        time.Now,
	}
}

// Start registers the sweep and starts the scheduler. It returns immediately.
func (j *IntentExpiryJob) Start(ctx context.Context) error {
	_, err := j.cron.AddFunc(j.spec, func() { j.expire(ctx) })
	if err != nil {
		return err
	}
	j.cron.Start()
	logrus.WithFields(logrus.Fields{"job": "intent_expiry", "spec": j.spec}).Info("started")
	return nil
}

// Stop waits for a running sweep to finish.
func (j *IntentExpiryJob) Stop() {
	<-j.cron.Stop().Done()
}

func (j *IntentExpiryJob) expire(ctx context.Context) {
	n, err := j.intentRepo.ExpirePending(ctx, j.now())
	if err != nil {
		logrus.WithError(err).Error("intent expiry: sweep failed")
		return
	}
	if n > 0 {
		logrus.WithField("count", n).Info("intent expiry: intents expired")
	}
}
