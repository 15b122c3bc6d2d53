package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notisub/internal/config"
	"notisub/internal/digest"
	"notisub/internal/repository"
	"notisub/internal/transport"
	"notisub/pkg/db"
	"notisub/pkg/logger"
	"notisub/pkg/mq"
	"notisub/pkg/outbox"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting notisub-digestd...",
		zap.Int("tick_seconds", cfg.Digest.TickSeconds),
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

	// Repositories
	subRepo := repository.NewSubscriptionRepository(dbConn, log)
	pendingRepo := repository.NewPendingRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)
	inAppRepo := repository.NewInAppRepository(dbConn, log)
	outboxRepo := outbox.NewRepository(dbConn)
	flushRepo := repository.NewDigestFlushRepository(dbConn, outboxRepo, log)

	// Outbox relay for digest.sent events
	outboxDispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go outboxDispatcher.Start(context.Background())

	// Compiler and transports
	compiler := digest.NewCompiler(digest.DefaultKinds())
	mailTransport, err := transport.NewMailTransport(cfg.Postmark, cfg.Digest.Subject, log)
	if err != nil {
		log.Fatal("Failed to init mail transport", zap.Error(err))
	}
	transports := transport.Router(
		mailTransport,
		transport.NewDatabaseTransport(inAppRepo, cfg.Digest.Subject, log),
		transport.NewSMSTransport(publisher, log),
	)

	dispatcher := digest.NewDispatcher(subRepo, pendingRepo, flushRepo, userRepo, transports, compiler, log)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Digest.TickSeconds) * time.Second)
		defer ticker.Stop()

		// Run immediately on startup
		if _, err := dispatcher.Run(runCtx, time.Now()); err != nil {
			log.Error("Digest run failed", zap.Error(err))
		}

		for {
			select {
			case <-runCtx.Done():
				log.Info("Digest scheduler stopped")
				return
			case <-ticker.C:
				if _, err := dispatcher.Run(runCtx, time.Now()); err != nil {
					log.Error("Digest run failed", zap.Error(err))
				}
			}
		}
	}()

	log.Info("notisub-digestd running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notisub-digestd gracefully...")
	cancel()
	dbConn.Close()
	publisher.Close()
	log.Info("notisub-digestd shutdown complete")
}
