// Package realtime carries change notifications between the stores and the
// live subscriptions that re-read them.
//
// Events are signals, not state: a subscriber that receives one re-reads what
// it is watching. A subscriber whose buffer is full misses the event, which is
// harmless because a pending signal already forces the same re-read.
package realtime

import (
	"context"
	"sync"
)

// SubscriberBuffer is the number of undelivered events held per subscriber.
const SubscriberBuffer = 16

// Event is a single notification published on a topic.
type Event struct {
	Topic   string
	Payload []byte
}

// Bus publishes events to every subscriber of a topic.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// Subscription receives events for one topic until closed.
// C is closed once the subscription ends.
type Subscription struct {
	C <-chan Event

	mu     sync.Mutex
	closed bool
	cancel func()
	stop   func() bool
}

// newSubscription wraps c and arranges for cancel to run once, either on Close
// or when ctx is done.
func newSubscription(ctx context.Context, c <-chan Event, cancel func()) *Subscription {
	s := &Subscription{C: c, cancel: cancel}
	stop := context.AfterFunc(ctx, s.Close)
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.cancel()
}
