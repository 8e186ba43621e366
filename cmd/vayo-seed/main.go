package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/config"
	logpkg "github.com/TanishqMishra12/VAYO/internal/logger"
	"github.com/TanishqMishra12/VAYO/internal/metrics"
	"github.com/TanishqMishra12/VAYO/internal/repository/vectorcache"
	"github.com/TanishqMishra12/VAYO/internal/usecase/seed"
	"github.com/TanishqMishra12/VAYO/internal/version"
	"github.com/TanishqMishra12/VAYO/internal/worker"
)

// embeddingCacheTTL keeps community embeddings long enough to make re-seeding cheap.
const embeddingCacheTTL = 30 * 24 * time.Hour

func main() {
	reset := flag.Bool("reset", false, "drop and recreate the vector index before seeding")
	migrate := flag.Bool("migrate", true, "create or update the communities table first")
	flag.Parse()

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

	logger.Info("Starting vayo seeder",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.Bool("reset", *reset),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterEmbeddingMetrics()

	rt, err := worker.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build runtime", zap.Error(err))
	}
	defer rt.Close()

	if *migrate {
		if err := rt.Communities.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate communities", zap.Error(err))
		}
	}

	embedder := vectorcache.NewEmbedder(rt.Embedder, rt.Store, embeddingCacheTTL, metrics.EmbeddingCacheTotal, logger)
	report, err := seed.New(rt.Communities, embedder, rt.Index, logger).Run(ctx, *reset)

	logger.Info("Seeding finished",
		zap.Int("total", report.Total),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
		zap.Int("tokens", report.Tokens),
	)
	if err != nil {
		logger.Error("Seeding incomplete", zap.Error(err))
		rt.Close()
		os.Exit(1) //nolint:gocritic // runtime closed explicitly above
	}
}
