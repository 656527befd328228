package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqcontracts "classyai/contracts/mq"
	"classyai/internal/config"
	"classyai/internal/relay"
	"classyai/pkg/circuitbreaker"
	"classyai/pkg/db"
	"classyai/pkg/logger"
	"classyai/pkg/otel"
	"classyai/pkg/mq"
	"classyai/pkg/redis"
	"classyai/pkg/util"
)

func main() {
	logger := logger.NewLogger(config.ServiceWorker)
	defer logger.Sync()

	cfg, err := config.LoadWorker()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	shutdownTracing, err := otel.Init(context.Background(), cfg.OTel, logger)
	if err != nil {
		logger.Fatal("OpenTelemetry init failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	logger.Info("Starting delivery worker...")

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	dedupeTTL := cfg.Delivery.DedupeTTL
	if dedupeTTL <= 0 {
		dedupeTTL = 24 * time.Hour
	}
	deduper := util.NewDeduper(rdb, dedupeTTL, logger)
	retryCounter := util.NewRetryCounter(rdb, dedupeTTL)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, config.ServiceWorker, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	// SMTP
	mailer, err := relay.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logger.Fatal("SMTP client init failed", zap.Error(err))
	}

	breakerCfg := circuitbreaker.DefaultConfig()
	if cfg.Delivery.Breaker.MaxFailures > 0 {
		breakerCfg.FailureThreshold = cfg.Delivery.Breaker.MaxFailures
	}
	if cfg.Delivery.Breaker.Timeout > 0 {
		breakerCfg.Timeout = cfg.Delivery.Breaker.Timeout
	}

	handler := relay.NewDeliveryHandler(
		relay.NewLeadRepository(dbConn),
		mailer,
		circuitbreaker.NewCircuitBreaker(breakerCfg),
		deduper,
		retryCounter,
		cfg.Delivery.Inbox,
		cfg.Delivery.MaxRetries,
		logger,
	)

	// DLQ publisher
	dlq, err := mq.NewPublisher(cfg.MQ.URL, config.ServiceWorker+".dlq")
	if err != nil {
		logger.Fatal("Failed to init DLQ publisher", zap.Error(err))
	}
	defer dlq.Close()

	queue := cfg.Delivery.Queue
	if queue == "" {
		queue = mqcontracts.RoutingKeyLeadReceived + ".mail.q"
	}
	logger.Info("Init consumer", zap.String("queue", queue))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, config.ServiceWorker+"."+queue, queue, mqcontracts.RoutingKeyLeadReceived, logger)
	if err != nil {
		logger.Fatal("Consumer init failed", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(handler.Handle)
	consumer.SetDeadLetter(dlq)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		if err := consumer.StartConsuming(ctx); err != nil {
			logger.Fatal("Consumer crashed", zap.Error(err))
		}
	}()

	logger.Info("Worker running")

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
}
