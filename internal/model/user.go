package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User owns the wallet. WalletBalance is never negative and only the ledger mutates it.
type User struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Email         string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Username      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	FirstName     string          `gorm:"type:varchar(64)" json:"first_name"`
	LastName      string          `gorm:"type:varchar(64)" json:"last_name"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"wallet_balance"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

type Address struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Address   string    `gorm:"type:varchar(255);not null" json:"address"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Address) TableName() string {
	return "addresses"
}
