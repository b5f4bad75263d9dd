package testutil

import (
	"testing"

	"restaurantgo/internal/infrastructure/database"
	"restaurantgo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with the full schema.
// A single connection serializes transactions the way the row lock does on MySQL,
// so code under test must use the tx handle inside a transaction.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser creates a user with the given balance, a tray and one address.
func SeedUser(t *testing.T, db *gorm.DB, name string, balance int64) (*model.User, *model.Address) {
	t.Helper()

	u := &model.User{
		Email:         name + "@example.com",
		Username:      name,
		FirstName:     name,
		WalletBalance: decimal.NewFromInt(balance),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := db.Create(&model.Tray{UserID: u.ID}).Error; err != nil {
		t.Fatalf("seed tray: %v", err)
	}
	addr := &model.Address{UserID: u.ID, Address: "12 Marina Road, Lagos", IsDefault: true}
	if err := db.Create(addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return u, addr
}

func SeedFood(t *testing.T, db *gorm.DB, name string, price int64, stock int) *model.Food {
	t.Helper()
	f := &model.Food{Name: name, Price: decimal.NewFromInt(price), AvailableQuantity: stock}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("seed food: %v", err)
	}
	return f
}

func SeedPackage(t *testing.T, db *gorm.DB, name string, price int64, stock int) *model.FoodPackage {
	t.Helper()
	p := &model.FoodPackage{Name: name, Price: decimal.NewFromInt(price), AvailableQuantity: stock}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	return p
}
