package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const redisDialTimeout = 5 * time.Second

// RedisBus is a Bus backed by Redis pub/sub, for running several instances
// behind one load balancer.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to the Redis server at redisURL and verifies it answers.
func NewRedisBus(ctx context.Context, redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close redis client after ping failure")
		}
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisBus{client: client}, nil
}

// Publish sends payload to every instance subscribed to topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a Redis subscription on topic. Cancelling ctx closes it.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)
	// Wait for the confirmation so no event published after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	out := make(chan Event, SubscriberBuffer)
	done := make(chan struct{})
	in := ps.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Event{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
				default:
				}
			}
		}
	}()

	return newSubscription(ctx, out, func() {
		close(done)
		if err := ps.Close(); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("failed to close redis subscription")
		}
	}), nil
}

// Close releases the Redis connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
