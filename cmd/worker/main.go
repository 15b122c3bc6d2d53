package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notisub/internal/config"
	"notisub/internal/digest"
	"notisub/internal/mqhandler"
	"notisub/internal/registry"
	"notisub/internal/repository"
	"notisub/internal/service/dispatch"
	"notisub/internal/transport"
	"notisub/pkg/db"
	"notisub/pkg/logger"
	"notisub/pkg/mq"
	"notisub/pkg/redis"
	"notisub/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting notisub-worker...")

	// Redis
	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduperWithLogger(rdb, time.Hour, log)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	// MQ publisher (SMS hand-off and DLQ)
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	subRepo := repository.NewSubscriptionRepository(dbConn, log)
	pendingRepo := repository.NewPendingRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)
	inAppRepo := repository.NewInAppRepository(dbConn, log)

	// Registry, compiler, transports
	reg := registry.NewConfigRegistry(cfg.Notifications)
	kinds := digest.DefaultKinds()
	compiler := digest.NewCompiler(kinds)

	mailTransport, err := transport.NewMailTransport(cfg.Postmark, cfg.Digest.Subject, log)
	if err != nil {
		log.Fatal("Failed to init mail transport", zap.Error(err))
	}
	transports := transport.Router(
		mailTransport,
		transport.NewDatabaseTransport(inAppRepo, cfg.Digest.Subject, log),
		transport.NewSMSTransport(publisher, log),
	)

	// Dispatch service and handler
	immediate := transport.NewImmediateDispatcher(userRepo, transports, compiler, log)
	dispatchSvc := dispatch.NewService(subRepo, pendingRepo, immediate, reg, kinds, log)
	handler := mqhandler.NewNotificationFiredHandler(dispatchSvc, deduper, retryCounter, publisher, log)

	// notification.fired consumer
	log.Info("Init consumer: notification.fired.q")
	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		"notification.fired.q",
		"notification.fired",
		log,
	)
	if err != nil {
		log.Fatal("Consumer init failed", zap.Error(err))
	}
	consumer.SetHandler(handler.Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer crashed", zap.Error(err))
		}
	}()
	defer consumer.Close()

	log.Info("Worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notisub-worker gracefully...")
	consumer.Close()
	dbConn.Close()
	rdb.Close()
	publisher.Close()
	log.Info("notisub-worker shutdown complete")
}
