package repository

import (
	"context"
	"errors"
	"time"

	"restaurantgo/internal/model"

	"gorm.io/gorm"
)

var ErrIntentNotFound = errors.New("payment intent not found")

type PaymentIntentRepository struct {
	db *gorm.DB
}

func NewPaymentIntentRepository(db *gorm.DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

func (r *PaymentIntentRepository) Create(ctx context.Context, intent *model.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *PaymentIntentRepository) GetByTransactionRef(ctx context.Context, ref string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := r.db.WithContext(ctx).Where("transaction_reference = ?", ref).First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}
	return &intent, nil
}

// MarkCompleted settles a pending intent. Intents already settled are left alone.
func (r *PaymentIntentRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, transactionRef string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("transaction_reference = ? AND status <> ?", transactionRef, model.IntentStatusCompleted).
		Update("status", model.IntentStatusCompleted).Error
}

// GetStalePending lists pending intents not touched since before, for reconciliation.
func (r *PaymentIntentRepository) GetStalePending(ctx context.Context, before time.Time, limit int) ([]*model.PaymentIntent, error) {
	var intents []*model.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ? AND transaction_reference <> ''", model.IntentStatusPending, before).
		Order("id ASC").
		Limit(limit).
		Find(&intents).Error
	return intents, err
}

// ExpirePending marks every pending intent past its deadline as expired.
func (r *PaymentIntentRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("status = ? AND expired_at < ?", model.IntentStatusPending, now).
		Update("status", model.IntentStatusExpired)
	return result.RowsAffected, result.Error
}
