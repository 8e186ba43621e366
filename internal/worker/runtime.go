// Package worker assembles the long-lived collaborators of a worker process.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TanishqMishra12/VAYO/internal/config"
	dbMySQL "github.com/TanishqMishra12/VAYO/internal/db/mysql"
	dbRedis "github.com/TanishqMishra12/VAYO/internal/db/redis"
	"github.com/TanishqMishra12/VAYO/internal/domain"
	communityrepo "github.com/TanishqMishra12/VAYO/internal/repository/community"
	"github.com/TanishqMishra12/VAYO/internal/repository/publisher"
	"github.com/TanishqMishra12/VAYO/internal/repository/qdrantindex"
	"github.com/TanishqMishra12/VAYO/internal/repository/taskstore"
	"github.com/TanishqMishra12/VAYO/internal/repository/vectorcache"
	"github.com/TanishqMishra12/VAYO/internal/repository/vectorindex"
	natsTransport "github.com/TanishqMishra12/VAYO/internal/transport/nats"
	openaiTransport "github.com/TanishqMishra12/VAYO/internal/transport/openai"
	"github.com/TanishqMishra12/VAYO/internal/usecase/enrich"
	"github.com/TanishqMishra12/VAYO/internal/usecase/match"
	taskuc "github.com/TanishqMishra12/VAYO/internal/usecase/task"
)

// VectorIndex is the community vector index behind either driver.
type VectorIndex interface {
	EnsureIndex(ctx context.Context) error
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, c domain.Community, vec []float32) error
	Search(ctx context.Context, vec []float32, ids []string, k int) ([]domain.VectorMatch, error)
}

// Runtime holds the clients a worker process builds once at start.
// Every client is safe for concurrent use.
type Runtime struct {
	Store       *dbRedis.Store
	DB          *gorm.DB
	Communities *communityrepo.Repo
	Index       VectorIndex
	Embedder    *openaiTransport.Embedder

	closers []func() error
	logger  *zap.Logger
}

// Open connects Redis, MySQL and the vector index. Call Close when done.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{logger: logger}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	rt.Store = store
	rt.closers = append(rt.closers, func() error { store.Close(); return nil })

	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		rt.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}

	gdb, err := dbMySQL.Open(dbMySQL.Config{
		DSN:           cfg.MySQL.DSN,
		MaxOpenConns:  cfg.MySQL.MaxOpenConns,
		MaxIdleConns:  cfg.MySQL.MaxIdleConns,
		SlowThreshold: time.Duration(cfg.MySQL.SlowThresholdMS) * time.Millisecond,
	}, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	rt.DB = gdb
	rt.closers = append(rt.closers, func() error { return dbMySQL.Close(gdb) })
	rt.Communities = communityrepo.New(gdb, cfg.Store.CandidateLimit)

	switch cfg.Vector.Driver {
	case "qdrant":
		client, err := qdrantindex.Dial(qdrantindex.Config{
			URL:        cfg.Vector.QdrantURL,
			APIKey:     cfg.Vector.QdrantAPIKey,
			Collection: cfg.Vector.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("dial qdrant: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		rt.Index = qdrantindex.New(client, cfg.Vector.Collection, cfg.Embedding.Dimensions)
	default:
		rt.Index = vectorindex.New(store, vectorindex.Options{
			Dimensions:     cfg.Embedding.Dimensions,
			M:              cfg.Vector.HNSWM,
			EFConstruction: cfg.Vector.HNSWEFConstruct,
		})
	}

	rt.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	logger.Info("Worker runtime ready",
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	return rt, nil
}

// Pipeline wires the match pipeline over the runtime's clients.
func (rt *Runtime) Pipeline(cfg config.Config) *match.Service {
	// Pass a nil interface, not a typed nil pointer, when enrichment is off.
	var sanitizer enrich.Sanitizer
	if cfg.Enrichment.Enabled && cfg.Enrichment.APIKey != "" {
		sanitizer = openaiTransport.NewSanitizer(&openaiTransport.SanitizerConfig{
			APIKey:      cfg.Enrichment.APIKey,
			BaseURL:     cfg.Enrichment.BaseURL,
			Model:       cfg.Enrichment.Model,
			Temperature: cfg.Enrichment.Temperature,
			MaxTokens:   cfg.Enrichment.MaxTokens,
			Logger:      rt.logger,
		})
	}

	return match.New(match.Deps{
		Enricher: enrich.New(sanitizer, enrich.Config{
			FailureThreshold: cfg.Enrichment.FailureThreshold,
			OpenTimeout:      time.Duration(cfg.Enrichment.BreakerOpenSec) * time.Second,
		}, rt.logger),
		Embedder:  rt.Embedder,
		Pool:      rt.Communities,
		Ranker:    rt.Index,
		Cache:     vectorcache.New(rt.Store, time.Duration(cfg.Cache.VectorTTLSec)*time.Second),
		Publisher: publisher.New(rt.Store, time.Duration(cfg.Cache.ResultTTLSec)*time.Second),
	}, cfg.Store.PopularLimit)
}

// Tasks wires the task lifecycle around the pipeline. The worker never enqueues.
func (rt *Runtime) Tasks(cfg config.Config, pipeline taskuc.Runner) *taskuc.Service {
	return taskuc.New(
		taskstore.New(rt.Store, time.Duration(cfg.Tasks.ResultTTLSec)*time.Second),
		nil,
		pipeline,
		taskuc.Config{
			Expiry:        time.Duration(cfg.Tasks.ExpirySec) * time.Second,
			EstimatedTime: time.Duration(cfg.Tasks.EstimatedTimeMS) * time.Millisecond,
		},
	)
}

// ConnectQueue opens the NATS connection and makes sure the task stream exists.
func (rt *Runtime) ConnectQueue(ctx context.Context, cfg config.Config, name string) (jetstream.JetStream, error) {
	nc, js, err := natsTransport.Connect(cfg.NATS.URL, name, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	rt.closers = append(rt.closers, func() error { return drain(nc) })

	if err := natsTransport.EnsureStream(ctx, js, natsTransport.StreamConfig{
		Name:    cfg.NATS.Stream,
		Subject: cfg.NATS.Subject,
		MaxAge:  time.Duration(cfg.Tasks.ResultTTLSec) * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("ensure task stream: %w", err)
	}
	return js, nil
}

// Close releases every client in reverse order of creation.
func (rt *Runtime) Close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn("Errors while closing worker runtime", zap.Error(err))
	}
}

func drain(nc *natsgo.Conn) error {
	if err := nc.Drain(); err != nil {
		nc.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}
