package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

// jsPublisher is the subset of jetstream.JetStream used to enqueue tasks.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher enqueues match tasks on the stream subject.
type Publisher struct {
	js      jsPublisher
	subject string
}

// NewPublisher creates a task publisher.
func NewPublisher(js jsPublisher, subject string) *Publisher {
	return &Publisher{js: js, subject: subject}
}

// Enqueue publishes msg. The task id is the JetStream message id, so a
// retried publish inside the duplicate window is stored once.
func (p *Publisher) Enqueue(ctx context.Context, msg domain.TaskMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", msg.TaskID, err)
	}
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(msg.TaskID)); err != nil {
		return fmt.Errorf("publish task %s: %w", msg.TaskID, err)
	}
	return nil
}
