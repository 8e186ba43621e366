package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/config"
	dbMySQL "github.com/TanishqMishra12/VAYO/internal/db/mysql"
	dbRedis "github.com/TanishqMishra12/VAYO/internal/db/redis"
	logpkg "github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
	communityrepo "github.com/TanishqMishra12/VAYO/internal/repository/community"
	"github.com/TanishqMishra12/VAYO/internal/repository/publisher"
	"github.com/TanishqMishra12/VAYO/internal/repository/taskstore"
	chiTransport "github.com/TanishqMishra12/VAYO/internal/transport/chi"
	natsTransport "github.com/TanishqMishra12/VAYO/internal/transport/nats"
	openaiTransport "github.com/TanishqMishra12/VAYO/internal/transport/openai"
	"github.com/TanishqMishra12/VAYO/internal/version"
	healthuc "github.com/TanishqMishra12/VAYO/internal/usecase/health"
	taskuc "github.com/TanishqMishra12/VAYO/internal/usecase/task"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vayo API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
		zap.String("nats_url", cfg.NATS.URL),
	)

	ctx := context.Background()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create redis store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to redis")

	gdb, err := dbMySQL.Open(dbMySQL.Config{
		DSN:           cfg.MySQL.DSN,
		MaxOpenConns:  cfg.MySQL.MaxOpenConns,
		MaxIdleConns:  cfg.MySQL.MaxIdleConns,
		SlowThreshold: time.Duration(cfg.MySQL.SlowThresholdMS) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open mysql", zap.Error(err))
	}
	defer func() { _ = dbMySQL.Close(gdb) }()

	communities := communityrepo.New(gdb, cfg.Store.CandidateLimit)
	if err := communities.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate communities", zap.Error(err))
	}

	nc, js, err := natsTransport.Connect(cfg.NATS.URL, "vayo-api", logger)
	if err != nil {
		logger.Fatal("Failed to connect to nats", zap.Error(err))
	}
	defer nc.Close()

	if err := natsTransport.EnsureStream(ctx, js, natsTransport.StreamConfig{
		Name:    cfg.NATS.Stream,
		Subject: cfg.NATS.Subject,
		MaxAge:  time.Duration(cfg.Tasks.ResultTTLSec) * time.Second,
	}); err != nil {
		logger.Fatal("Failed to ensure task stream", zap.Error(err))
	}

	metrics.RegisterEmbeddingMetrics()

	// API never runs the pipeline; runner stays nil.
	tasks := taskuc.New(
		taskstore.New(store, time.Duration(cfg.Tasks.ResultTTLSec)*time.Second),
		natsTransport.NewPublisher(js, cfg.NATS.Subject),
		nil,
		taskuc.Config{
			Expiry:        time.Duration(cfg.Tasks.ExpirySec) * time.Second,
			EstimatedTime: time.Duration(cfg.Tasks.EstimatedTimeMS) * time.Millisecond,
		},
	)

	broadcasts := publisher.New(store, time.Duration(cfg.Cache.ResultTTLSec)*time.Second)

	// Pass a nil interface, not a typed nil pointer, when embeddings are not configured.
	var embeddingCheck healthuc.EmbeddingChecker
	if cfg.Embedding.APIKey != "" {
		embeddingCheck = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}
	healthSvc := healthuc.New(store, dbMySQL.Pinger{DB: gdb}, embeddingCheck)

	server := chiTransport.NewServer(tasks, communities, broadcasts, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:         cfg.Auth.APIKeys,
		MatchRatePerMin: cfg.HTTP.MatchRatePerMin,
		Logger:          logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	// No WriteTimeout: websocket connections are long-lived and set their own write deadlines.
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
