package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PubSubManager relays unsigned operations over Redis Pub/Sub
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// Publish sends payload to channel
func (p *PubSubManager) Publish(ctx context.Context, channel string, payload []byte) error {
	n, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	if n == 0 {
		p.logger.WithField("channel", channel).Warn("published operation has no subscribers")
	}
	return nil
}

// Subscribe delivers every message on channel to handler until ctx is done
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler([]byte(msg.Payload))
		}
	}
}
