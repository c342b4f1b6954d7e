package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to or subscribing on a closed bus.
var ErrClosed = errors.New("realtime bus is closed")

type memorySubscriber struct {
	ch chan Event
}

// MemoryBus is an in-process Bus. It is the default when no broker is configured.
type MemoryBus struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySubscriber]struct{}
	closed bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{topics: make(map[string]map[*memorySubscriber]struct{})}
}

// Publish fans the event out without blocking on slow subscribers.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	ev := Event{Topic: topic, Payload: payload}
	for sub := range b.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber on topic. Cancelling ctx closes it.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscriber{ch: make(chan Event, SubscriberBuffer)}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*memorySubscriber]struct{})
	}
	b.topics[topic][sub] = struct{}{}

	return newSubscription(ctx, sub.ch, func() { b.remove(topic, sub) }), nil
}

func (b *MemoryBus) remove(topic string, sub *memorySubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
	close(sub.ch)
}

// Close ends every subscription and rejects further use.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.topics, topic)
	}
	return nil
}
