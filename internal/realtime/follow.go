package realtime

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Follower keeps a callback fed with fresh reads of a topic's state.
type Follower struct {
	cancel context.CancelFunc
	sub    *Subscription
	wg     sync.WaitGroup
}

// Follow subscribes to topic, delivers load's result to fn before returning,
// and calls fn again with a fresh load after every event on the topic.
//
// Stop, or cancelling ctx, ends the follower. Once Stop returns fn is never
// called again. Stop must not be called from inside fn.
func Follow[T any](ctx context.Context, bus Bus, topic string, load func(context.Context) (T, error), fn func(T)) (*Follower, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Subscribe before the first read so a change racing with it still
	// triggers a re-read.
	sub, err := bus.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	initial, err := load(ctx)
	if err != nil {
		sub.Close()
		cancel()
		return nil, err
	}
	fn(initial)

	f := &Follower{cancel: cancel, sub: sub}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		followLoop(ctx, sub, topic, load, fn)
	}()
	return f, nil
}

func followLoop[T any](ctx context.Context, sub *Subscription, topic string, load func(context.Context) (T, error), fn func(T)) {
	for range sub.C {
		drain(sub.C)
		if ctx.Err() != nil {
			return
		}
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).WithField("topic", topic).Warn("failed to reload followed state")
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}
		fn(v)
	}
}

// drain discards events already queued; one reload covers all of them.
func drain(c <-chan Event) {
	for {
		select {
		case _, ok := <-c:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Stop ends the follower and waits for any in-flight delivery to finish.
func (f *Follower) Stop() {
	f.cancel()
	f.sub.Close()
	f.wg.Wait()
}
