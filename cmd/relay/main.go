package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"classyai/internal/config"
	"classyai/internal/relay"
	"classyai/pkg/db"
	"classyai/pkg/logger"
	"classyai/pkg/otel"
	"classyai/pkg/mq"
	"classyai/pkg/outbox"
)

func main() {
	logger := logger.NewLogger(config.ServiceRelay)
	defer logger.Sync()

	cfg, err := config.LoadRelay()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	shutdownTracing, err := otel.Init(context.Background(), cfg.OTel, logger)
	if err != nil {
		logger.Fatal("OpenTelemetry init failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, config.ServiceRelay, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init RabbitMQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL, config.ServiceRelay+".outbox")
	if err != nil {
		logger.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Outbox dispatcher
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dispatcher := outbox.NewDispatcher(outbox.NewRepository(dbConn), publisher, logger)
	if cfg.Outbox.Interval > 0 {
		dispatcher = dispatcher.WithInterval(cfg.Outbox.Interval)
	}
	if cfg.Outbox.BatchSize > 0 {
		dispatcher = dispatcher.WithBatchSize(cfg.Outbox.BatchSize)
	}
	if cfg.Outbox.MaxRetries > 0 {
		dispatcher = dispatcher.WithMaxRetries(cfg.Outbox.MaxRetries)
	}
	go dispatcher.Start(ctx)

	// Handlers
	service := relay.NewService(dbConn, relay.NewLeadRepository(dbConn), logger)
	contactHandler := relay.NewContactHandler(service, logger)
	router := relay.NewRouter(contactHandler, dbConn, publisher, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		logger.Info("Starting relay", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server start failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down relay...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
