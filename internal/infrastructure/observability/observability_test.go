package observability_test

import (
	"testing"

	infraobs "github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewFallsBackToNops(t *testing.T) {
	tel := infraobs.New(infraobs.Options{})
	if tel.Tracer() == nil || tel.Logger() == nil || tel.Metrics() == nil {
		t.Fatal("expected nop backends")
	}
	tel.Metrics().Counter(observability.MDomainEvents).Add(1, observability.L("event", "x"))
	tel.Metrics().Histogram(observability.MUsecaseDuration).Observe(0.1)
}

func TestNewResolvesRegisteredInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New("", "", reg))

	tel := infraobs.New(infraobs.Options{Counters: counters, Histograms: histograms})
	tel.Metrics().Counter(observability.MDomainEvents).Add(2, observability.L("event", "order.created"))

	n, err := testutil.GatherAndCount(reg, string(observability.MDomainEvents))
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("series = %d, want 1", n)
	}

	// unregistered keys resolve to nops
	tel.Metrics().Counter("missing_total").Add(1)
}
