package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SummaryKindDebit  = "DEBIT"
	SummaryKindCredit = "CREDIT"

	SummaryStatusSuccessful = "SUCCESSFUL"
)

// WalletSummary is the append-only audit record of one balance mutation.
// Rows are never updated or deleted.
type WalletSummary struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"index;not null" json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description     string          `gorm:"type:varchar(256)" json:"description"`
	PreviousBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"previous_balance"`
	AfterBalance    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"after_balance"`
	Kind            string          `gorm:"type:varchar(10);not null" json:"kind"`
	Status          string          `gorm:"type:varchar(20);not null" json:"status"`
	OrderID         string          `gorm:"type:varchar(64);index" json:"order_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletSummary) TableName() string {
	return "wallet_summaries"
}

const (
	FundingStatusSuccessful = "SUCCESSFUL"
)

// Funding records a gateway payment credited to a wallet. Ref is the dedup key.
type Funding struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"index;not null" json:"user_id"`
	Ref       string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"ref"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Fee       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"fee"`
	Status    string          `gorm:"type:varchar(20);not null" json:"status"`
	Gateway   string          `gorm:"type:varchar(32);not null" json:"gateway"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Funding) TableName() string {
	return "fundings"
}

const (
	IntentStatusPending   = "PENDING"
	IntentStatusCompleted = "COMPLETED"
	IntentStatusExpired   = "EXPIRED"
)

// PaymentIntent is a wallet top-up started through the gateway and not yet settled.
type PaymentIntent struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               int64           `gorm:"index;not null" json:"user_id"`
	PaymentReference     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_reference"`
	TransactionReference string          `gorm:"type:varchar(128);index" json:"transaction_reference"`
	Amount               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status               string          `gorm:"type:varchar(20);index;not null" json:"status"`
	CheckoutURL          string          `gorm:"type:varchar(512)" json:"checkout_url"`
	ExpiredAt            time.Time       `gorm:"not null" json:"expired_at"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}
