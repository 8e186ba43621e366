package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/config"
	logpkg "github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
	natsTransport "github.com/TanishqMishra12/VAYO/internal/transport/nats"
	"github.com/TanishqMishra12/VAYO/internal/version"
	"github.com/TanishqMishra12/VAYO/internal/worker"
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

	logger.Info("Starting vayo worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("concurrency", cfg.Worker.Concurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	rt, err := worker.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build worker runtime", zap.Error(err))
	}
	defer rt.Close()

	js, err := rt.ConnectQueue(ctx, cfg, "vayo-worker")
	if err != nil {
		logger.Fatal("Failed to connect task queue", zap.Error(err))
	}

	tasks := rt.Tasks(cfg, rt.Pipeline(cfg))

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.WorkerMetricPort),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting metrics server", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	consumer := natsTransport.NewConsumer(js, natsTransport.ConsumerConfig{
		Stream:      cfg.NATS.Stream,
		Subject:     cfg.NATS.Subject,
		Durable:     cfg.NATS.Consumer,
		Concurrency: cfg.Worker.Concurrency,
	}, logger)

	// Blocks until a shutdown signal, then waits for in-flight tasks.
	if err := consumer.Run(ctx, tasks.Execute); err != nil {
		logger.Error("Consumer stopped with error", zap.Error(err))
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during metrics server shutdown", zap.Error(err))
	}

	logger.Info("Worker stopped gracefully")
}
