package database

import (
	"fmt"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitMySQL opens the pool and migrates the schema. Failure is fatal.
func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logrus.WithError(err).Fatal("connect mysql")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("get sql.DB")
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		logrus.WithError(err).Fatal("auto migrate")
	}

	DB = db
	logrus.WithFields(logrus.Fields{"host": cfg.Host, "database": cfg.Database}).Info("mysql connected")
	return db
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Food{},
		&model.FoodPackage{},
		&model.Tray{},
		&model.TrayItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.WalletSummary{},
		&model.Funding{},
		&model.PaymentIntent{},
		&model.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
