package redis

import (
	"context"
	"sync"

	"github.com/redis/rueidis"

	"github.com/TanishqMishra12/VAYO/internal/db"
)

// Publish sends a message to a channel.
func (s *Store) Publish(ctx context.Context, channel string, message []byte) error {
	cmd := s.b().Publish().Channel(channel).Message(rueidis.BinaryString(message)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}

// Subscribe delivers channel messages to fn until ctx is cancelled.
// ready is called once SUBSCRIBE is confirmed, so messages published after it are delivered.
// Cancellation is a normal exit and returns nil.
func (s *Store) Subscribe(ctx context.Context, channel string, ready func(), fn func(message []byte)) error {
	if ready != nil {
		var once sync.Once
		ctx = rueidis.WithOnSubscriptionHook(ctx, func(sub rueidis.PubSubSubscription) {
			if sub.Kind == "subscribe" && sub.Channel == channel {
				once.Do(ready)
			}
		})
	}
	cmd := s.b().Subscribe().Channel(channel).Build()
	err := s.client.Receive(ctx, cmd, func(msg rueidis.PubSubMessage) {
		fn([]byte(msg.Message))
	})
	if err != nil && ctx.Err() == nil {
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}
	return nil
}
