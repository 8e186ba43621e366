package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	logpkg "github.com/TanishqMishra12/VAYO/internal/logger"
)

// Handler processes one task. Its error is logged; the message is acked regardless.
type Handler func(ctx context.Context, msg domain.TaskMessage) error

// consumerFactory is the subset of jetstream.JetStream used to bind the durable consumer.
type consumerFactory interface {
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// ackable is the part of jetstream.Msg the consumer needs.
type ackable interface {
	Data() []byte
	Ack() error
	Term() error
}

// ConsumerConfig configures the durable pull consumer.
type ConsumerConfig struct {
	Stream      string
	Subject     string
	Durable     string
	Concurrency int
	// AckWait must exceed the longest expected pipeline run.
	AckWait time.Duration
}

// Consumer runs tasks from the stream with bounded concurrency.
type Consumer struct {
	js     consumerFactory
	cfg    ConsumerConfig
	logger *zap.Logger
}

// NewConsumer creates a task consumer.
func NewConsumer(js consumerFactory, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 5 * time.Minute
	}
	return &Consumer{js: js, cfg: cfg, logger: logger}
}

// Run consumes until ctx is done, then waits for in-flight tasks.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       c.cfg.Durable,
		FilterSubject: c.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.cfg.AckWait,
		MaxAckPending: c.cfg.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", c.cfg.Durable, err)
	}

	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			_ = msg.Nak()
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			c.process(ctx, msg, handle)
		}()
	}, jetstream.PullMaxMessages(c.cfg.Concurrency))
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Durable, err)
	}

	c.logger.Info("task consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("durable", c.cfg.Durable),
		zap.Int("concurrency", c.cfg.Concurrency),
	)

	<-ctx.Done()
	cc.Stop()
	wg.Wait()
	return nil
}

// process decodes and handles one message. Malformed messages are terminated,
// everything else is acked once the handler returns.
func (c *Consumer) process(ctx context.Context, msg ackable, handle Handler) {
	var task domain.TaskMessage
	if err := json.Unmarshal(msg.Data(), &task); err != nil || task.TaskID == "" {
		c.logger.Error("dropping malformed task message", zap.Error(err))
		if err := msg.Term(); err != nil {
			c.logger.Warn("term failed", zap.Error(err))
		}
		return
	}

	// Tasks already started keep running through shutdown.
	runCtx := logpkg.ContextWithLogger(context.WithoutCancel(ctx), c.logger)
	if err := handle(runCtx, task); err != nil {
		c.logger.Error("task handler failed", zap.String("task_id", task.TaskID), zap.Error(err))
	}
	if err := msg.Ack(); err != nil {
		c.logger.Warn("ack failed", zap.String("task_id", task.TaskID), zap.Error(err))
	}
}
