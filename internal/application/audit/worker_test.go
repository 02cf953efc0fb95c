package audit_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/marketplace/internal/application/audit"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	infraobs "github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSubscriber struct {
	handlers map[string][]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string][]domoutbox.Handler)
	}
	s.handlers[name] = append(s.handlers[name], h)
}

type unknownEvent struct{}

func (unknownEvent) EventName() string { return "unknown" }

func newWorker(t *testing.T) (*audit.Worker, *fakeSubscriber, *observer.ObservedLogs, *prometheus.Registry) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New("", "", reg))
	tel := infraobs.New(infraobs.Options{
		Logger:     zaplogger.New(zap.New(core)),
		Counters:   counters,
		Histograms: histograms,
	})
	sub := &fakeSubscriber{}
	return audit.New(sub, tel), sub, logs, reg
}

func TestStartSubscribesEveryEvent(t *testing.T) {
	w, sub, _, _ := newWorker(t)

	var wrapped int
	w.Start(func(next domoutbox.Handler) domoutbox.Handler {
		wrapped++
		return next
	})

	for _, name := range audit.EventNames() {
		if len(sub.handlers[name]) != 1 {
			t.Fatalf("%s handlers = %d, want 1", name, len(sub.handlers[name]))
		}
	}
	if wrapped != 1 {
		t.Fatalf("middleware applied %d times, want 1", wrapped)
	}
}

func TestHandleLogsAndCounts(t *testing.T) {
	w, _, logs, reg := newWorker(t)
	ctx := context.Background()

	events := []domoutbox.Event{
		domorder.OrderDeliveredEvent{OrderID: "o1", ShopID: "s1",
			TotalPrice: decimal.NewFromInt(100), ServiceCharge: decimal.NewFromInt(10), Payout: decimal.NewFromInt(90)},
		dombalance.CreditedEvent{ShopID: "s1", OrderID: "o1", Amount: decimal.NewFromInt(90),
			Mode: dombalance.ModeAdditive, Available: decimal.NewFromInt(90)},
		dominventory.RestockedEvent{ProductID: "p1", ShopID: "s1", Quantity: 2, Stock: 5, Reason: dominventory.ReasonDispatch},
	}
	for _, e := range events {
		if err := w.Handle(ctx, e); err != nil {
			t.Fatalf("handle %s: %v", e.EventName(), err)
		}
	}

	audited := logs.FilterMessage("domain_event").All()
	if len(audited) != len(events) {
		t.Fatalf("audit lines = %d, want %d", len(audited), len(events))
	}
	if got := audited[0].ContextMap()["payout"]; got != "90.00" {
		t.Fatalf("payout = %v", got)
	}

	if got := counterValue(t, reg, "domain_events_total", "event", "balance.credited"); got != 1 {
		t.Fatalf("balance.credited count = %v", got)
	}
	n, err := testutil.GatherAndCount(reg, "ledger_mutations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Fatalf("ledger mutation series = %d, want 2", n)
	}
}

func TestHandleIgnoresUnknownEvents(t *testing.T) {
	w, _, logs, _ := newWorker(t)
	if err := w.Handle(context.Background(), unknownEvent{}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if logs.FilterMessage("domain_event").Len() != 0 {
		t.Fatal("unknown event must not be audited")
	}
}

func TestNilObservabilityIsSafe(t *testing.T) {
	w := audit.New(nil, nil)
	w.Start()
	if err := w.Handle(context.Background(), domorder.OrderCreatedEvent{OrderID: "o1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

// counterValue reads one labelled counter series back out of the registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("series %s{%s=%q} not found", name, label, value)
	return 0
}
