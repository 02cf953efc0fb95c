package order

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
)

const (
	orderService = "order-service"
	spanPrefix   = "UC."
	publishPeer  = "outbox"

	publishTimeout = 300 * time.Millisecond
)

// instruments holds the RED metrics shared by the order use cases.
// Supplied via DI; never instantiated inside Execute.
type instruments struct {
	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newInstruments(tel observability.Observability) instruments {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return instruments{
		log:          tel.Logger().With(observability.F("service", orderService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in instruments) observe(useCase, outcome string, latency float64) {
	in.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	in.durHistogram.Observe(latency,
		observability.L("use_case", useCase),
	)
}

// publish hands events to the bus after commit. Failures are reported, never returned to the caller:
// the transition is already durable.
func (in instruments) publish(ctx context.Context, publisher domoutbox.Publisher, events ...domoutbox.Event) error {
	if publisher == nil || len(events) == 0 {
		return nil
	}
	var firstErr error
	for _, e := range events {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		start := time.Now()
		outcome := "success"

		err := publisher.Publish(pubCtx, e)
		if err != nil {
			outcome = "error"
		} else if pubCtx.Err() != nil {
			outcome = "canceled"
			err = pubCtx.Err()
		}
		cancel()

		in.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
			observability.L("outcome", outcome),
		)
		in.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", e.EventName()),
		)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
