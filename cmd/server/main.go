package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"classyai/internal/config"
	"classyai/internal/draft"
	"classyai/internal/lead"
	"classyai/internal/site"
	"classyai/internal/transport"
	"classyai/pkg/logger"
	"classyai/pkg/otel"
	redisclient "classyai/pkg/redis"
)

func main() {
	logger := logger.NewLogger(config.ServiceSite)
	defer logger.Sync()

	cfg, err := config.LoadSite()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	shutdownTracing, err := otel.Init(context.Background(), cfg.OTel, logger)
	if err != nil {
		logger.Fatal("OpenTelemetry init failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	// Draft storage
	var (
		store draft.Store
		rdb   *redis.Client
	)
	switch cfg.Drafts.Backend {
	case "memory":
		store = draft.NewMemoryStore()
		logger.Warn("Drafts kept in memory, they will not survive a restart")
	default:
		rdb = redisclient.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := redisclient.Ping(context.Background(), rdb); err != nil {
			logger.Warn("Redis not reachable yet", zap.Error(err))
		}
		store = draft.NewRedisStore(rdb)
	}

	// Transport
	tr, err := transport.New(cfg.Transport, logger)
	if err != nil {
		logger.Fatal("Transport init failed", zap.Error(err))
	}

	page := cfg.Page.WithDefaults()
	registry := site.NewRegistry(store, page.Inbox, cfg.Session.IdleTTL, cfg.Session.ToastTTL)
	submitter := site.NewSubmitter(tr, lead.NewSpamGuard(), page, logger).
		WithStoryTransport(transport.NewHTTPTransport(cfg.Transport.BaseURL, nil, logger))
	handler := site.NewHandler(page, registry, submitter, logger)
	router := site.NewRouter(handler, rdb, cfg.Session.SecureCookie)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		logger.Info("Starting site",
			zap.String("port", cfg.Server.Port),
			zap.String("strategy", string(tr.Strategy())),
			zap.String("base_path", site.BasePath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server start failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down site...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
