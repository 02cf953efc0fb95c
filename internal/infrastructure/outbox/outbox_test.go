package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := outbox.NewBus(nil, outbox.Options{})
	var mu sync.Mutex
	got := map[string]int{}
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			got[tag+":"+e.EventName()]++
			mu.Unlock()
			return nil
		}
	}
	bus.Subscribe("a", record("h1"))
	bus.Subscribe("a", record("h2"))
	bus.Subscribe("b", record("h1"))

	ctx := context.Background()
	bus.Start(ctx)
	for _, n := range []string{"a", "b", "c"} {
		if err := bus.Publish(ctx, testEvent{n}); err != nil {
			t.Fatalf("publish %s: %v", n, err)
		}
	}
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := bus.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := map[string]int{"h1:a": 1, "h2:a": 1, "h1:b": 1}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %d, want %d (all: %v)", k, got[k], v, got)
		}
	}
}

func TestBusSurvivesHandlerPanicsAndErrors(t *testing.T) {
	bus := outbox.NewBus(nil, outbox.Options{Concurrency: 1})
	delivered := make(chan struct{}, 1)
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	if err := bus.Publish(ctx, testEvent{"x"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler never ran")
	}
	if err := bus.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestPublishAfterStop(t *testing.T) {
	bus := outbox.NewBus(nil, outbox.Options{})
	ctx := context.Background()
	bus.Start(ctx)
	if err := bus.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := bus.Publish(ctx, testEvent{"late"}); !errors.Is(err, outbox.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestPublishHonoursContextWhenQueueFull(t *testing.T) {
	bus := outbox.NewBus(nil, outbox.Options{QueueSize: 1})
	ctx := context.Background()
	if err := bus.Publish(ctx, testEvent{"first"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := bus.Publish(cctx, testEvent{"second"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
