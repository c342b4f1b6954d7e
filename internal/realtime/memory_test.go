package realtime

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()

	a, err := bus.Subscribe(ctx, "tasks:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	b, err := bus.Subscribe(ctx, "tasks:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	other, err := bus.Subscribe(ctx, "tasks:u2")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "tasks:u1", []byte("changed")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, sub := range []*Subscription{a, b} {
		ev := receive(t, sub)
		if ev.Topic != "tasks:u1" || string(ev.Payload) != "changed" {
			t.Errorf("unexpected event %+v", ev)
		}
	}

	select {
	case ev := <-other.C:
		t.Errorf("other topic received %+v", ev)
	default:
	}
}

func TestMemoryBus_CloseStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "profile:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.Close()
	sub.Close()

	if _, ok := <-sub.C; ok {
		t.Error("expected closed channel")
	}
	if err := bus.Publish(ctx, "profile:u1", nil); err != nil {
		t.Errorf("publish after unsubscribe: %v", err)
	}
	if len(bus.topics) != 0 {
		t.Errorf("expected topic to be removed, have %d", len(bus.topics))
	}
}

func TestMemoryBus_ContextCancelCloses(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "tasks:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
}

func TestMemoryBus_PublishDoesNotBlock(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "tasks:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	for i := 0; i < SubscriberBuffer*3; i++ {
		if err := bus.Publish(ctx, "tasks:u1", nil); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := len(sub.C); got != SubscriberBuffer {
		t.Errorf("expected %d buffered events, got %d", SubscriberBuffer, got)
	}
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus()
	sub, err := bus.Subscribe(context.Background(), "t")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-sub.C; ok {
		t.Error("expected subscriber channel to be closed")
	}
	// Close after bus shutdown must not panic on the already closed channel.
	sub.Close()

	if err := bus.Publish(context.Background(), "t", nil); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := bus.Subscribe(context.Background(), "t"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNewRedisBus_InvalidURL(t *testing.T) {
	if _, err := NewRedisBus(context.Background(), "http://localhost:6379"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}
