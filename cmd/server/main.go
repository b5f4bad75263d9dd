package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurantgo/internal/config"
	"restaurantgo/internal/handler"
	"restaurantgo/internal/infrastructure/cache"
	"restaurantgo/internal/infrastructure/database"
	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/infrastructure/mail"
	"restaurantgo/internal/infrastructure/mq"
	"restaurantgo/internal/job"
	"restaurantgo/internal/logger"
	"restaurantgo/internal/service"
	"restaurantgo/pkg/idgen"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg := config.LoadConfig(configPath)

	log := logger.Init(os.Stdout, cfg.Log.Level, cfg.Server.Mode)

	idgen.Init(cfg.Business.WorkerID)

	db := database.InitMySQL(&cfg.MySQL)
	rdb := cache.InitRedis(&cfg.Redis)
	producer := mq.InitKafka(&cfg.Kafka)
	defer producer.Close()

	gw := gateway.NewMonnifyClient(cfg.Gateway, rdb)
	mailer := mail.NewSMTPSender(cfg.Mail)

	ledger := service.NewLedgerService(db, cfg)
	catalog := service.NewCatalogService(db)
	webhook := service.NewWebhookService(db, rdb, cfg, ledger, gw)
	svc := handler.Services{
		Ledger:   ledger,
		Catalog:  catalog,
		Tray:     service.NewTrayService(db, catalog),
		Checkout: service.NewCheckoutService(db, cfg, ledger, mailer),
		Orders:   service.NewOrderService(db, ledger),
		Funding:  service.NewFundingService(db, cfg, gw),
		Webhook:  webhook,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, cfg, producer)
	go outboxSender.Start(ctx)

	reconcileJob := job.NewFundingReconcileJob(db, cfg, webhook)
	go reconcileJob.Start(ctx)

	expiryJob := job.NewIntentExpiryJob(db, cfg)
	if err := expiryJob.Start(ctx); err != nil {
		log.WithError(err).Fatal("schedule intent expiry")
	}
	defer expiryJob.Stop()

	router, err := handler.SetupRouter(handler.NewHandler(svc), log, cfg.Server)
	if err != nil {
		log.WithError(err).Fatal("setup router")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// stop background jobs before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}

	log.Info("server stopped")
}
