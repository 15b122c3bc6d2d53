package main

import (
	"go.uber.org/zap"

	"notisub/internal/api"
	"notisub/internal/config"
	"notisub/internal/httpserver"
	"notisub/internal/registry"
	"notisub/internal/repository"
	"notisub/internal/service/subscription"
	"notisub/pkg/db"
	"notisub/pkg/logger"
	"notisub/pkg/mq"
	"notisub/pkg/outbox"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting notisub-api...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Registry and repositories
	reg := registry.NewConfigRegistry(cfg.Notifications)
	subRepo := repository.NewSubscriptionRepository(dbConn, log)
	inAppRepo := repository.NewInAppRepository(dbConn, log)
	pendingRepo := repository.NewPendingRepository(dbConn, log)
	outboxRepo := outbox.NewRepository(dbConn)

	// Services
	subSvc := subscription.NewService(subRepo, reg, log)
	replaySvc := outbox.NewReplayService(outboxRepo, publisher)

	// HTTP
	router := httpserver.NewRouter(
		api.NewSubscriptionHandler(subSvc),
		api.NewTypesHandler(reg),
		api.NewEventHandler(publisher, reg),
		api.NewFeedHandler(inAppRepo, pendingRepo),
		api.NewAdminHandler(replaySvc),
	)

	log.Info("notisub-api listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("HTTP server crashed", zap.Error(err))
	}
}
