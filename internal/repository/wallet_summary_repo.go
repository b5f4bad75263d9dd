package repository

import (
	"context"
	"errors"

	"restaurantgo/internal/model"

	"gorm.io/gorm"
)

type WalletSummaryRepository struct {
	db *gorm.DB
}

func NewWalletSummaryRepository(db *gorm.DB) *WalletSummaryRepository {
	return &WalletSummaryRepository{db: db}
}

func (r *WalletSummaryRepository) Create(ctx context.Context, tx *gorm.DB, summary *model.WalletSummary) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(summary).Error
}

func (r *WalletSummaryRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.WalletSummary, int64, error) {
	var summaries []*model.WalletSummary
	var total int64

	query := r.db.WithContext(ctx).Model(&model.WalletSummary{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&summaries).Error

	return summaries, total, err
}

type FundingRepository struct {
	db *gorm.DB
}

func NewFundingRepository(db *gorm.DB) *FundingRepository {
	return &FundingRepository{db: db}
}

// GetByRef returns nil, nil when no funding exists for ref.
func (r *FundingRepository) GetByRef(ctx context.Context, ref string) (*model.Funding, error) {
	var funding model.Funding
	err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&funding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &funding, nil
}

func (r *FundingRepository) Create(ctx context.Context, tx *gorm.DB, funding *model.Funding) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(funding).Error
}

func (r *FundingRepository) CountByRef(ctx context.Context, ref string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Funding{}).Where("ref = ?", ref).Count(&n).Error
	return n, err
}
