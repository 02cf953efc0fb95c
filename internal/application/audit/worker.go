package audit

import (
	"context"
	"time"

	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService = "audit-worker"
	useCase       = "audit.record_event"
	spanName      = "UC.RecordDomainEvent"
)

// Middleware decorates a handler before it is subscribed.
type Middleware func(domoutbox.Handler) domoutbox.Handler

// Worker turns committed domain events into one structured audit line each,
// and counts them.
type Worker struct {
	subscriber domoutbox.Subscriber
	tracer     observability.Tracer
	log        observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	events       observability.Counter   // domain_events_total{event}
	mutations    observability.Counter   // ledger_mutations_total{ledger,reason}
}

func New(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		events:       m.Counter(observability.MDomainEvents),
		mutations:    m.Counter(observability.MLedgerMutations),
	}
}

// EventNames lists every event the worker subscribes to.
func EventNames() []string {
	return []string{
		domorder.OrderCreatedEvent{}.EventName(),
		domorder.OrderStatusChangedEvent{}.EventName(),
		domorder.OrderDeliveredEvent{}.EventName(),
		dominventory.RestockedEvent{}.EventName(),
		dombalance.CreditedEvent{}.EventName(),
	}
}

func (w *Worker) Start(mw ...Middleware) {
	if w.subscriber == nil {
		return
	}
	var h domoutbox.Handler = w.Handle
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	for _, name := range EventNames() {
		w.subscriber.Subscribe(name, h)
	}
}

// Handle records a single event. Unknown event types are counted and ignored.
func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) error {
	ctx, span := w.tracer.Start(ctx, spanName,
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCase),
		observability.F("event", e.EventName()),
	)

	defer func() {
		lat := time.Since(start).Seconds()
		w.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		w.durHistogram.Observe(lat, observability.L("use_case", useCase))

		if outcome == "error" {
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	fields := describe(e)
	if fields == nil {
		outcome, status = "ignored", "UNKNOWN_EVENT"
		return nil
	}
	w.events.Add(1, observability.L("event", e.EventName()))

	switch evt := e.(type) {
	case dominventory.RestockedEvent:
		w.mutations.Add(1, observability.L("ledger", "inventory"), observability.L("reason", evt.Reason))
	case dombalance.CreditedEvent:
		w.mutations.Add(1, observability.L("ledger", "balance"), observability.L("reason", string(evt.Mode)))
	}

	logger.Info("domain_event", fields...)
	return nil
}

func describe(e domoutbox.Event) []observability.Field {
	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		return []observability.Field{
			observability.F("order_id", evt.OrderID),
			observability.F("shop_id", evt.ShopID),
			observability.F("buyer_id", evt.BuyerID),
			observability.F("total_price", evt.TotalPrice.StringFixed(2)),
			observability.F("items", evt.Items),
		}
	case domorder.OrderStatusChangedEvent:
		return []observability.Field{
			observability.F("order_id", evt.OrderID),
			observability.F("shop_id", evt.ShopID),
			observability.F("from", string(evt.From)),
			observability.F("to", string(evt.To)),
		}
	case domorder.OrderDeliveredEvent:
		return []observability.Field{
			observability.F("order_id", evt.OrderID),
			observability.F("shop_id", evt.ShopID),
			observability.F("total_price", evt.TotalPrice.StringFixed(2)),
			observability.F("service_charge", evt.ServiceCharge.StringFixed(2)),
			observability.F("payout", evt.Payout.StringFixed(2)),
		}
	case dominventory.RestockedEvent:
		return []observability.Field{
			observability.F("product_id", evt.ProductID),
			observability.F("shop_id", evt.ShopID),
			observability.F("quantity", evt.Quantity),
			observability.F("stock", evt.Stock),
			observability.F("sold_out", evt.SoldOut),
			observability.F("reason", evt.Reason),
		}
	case dombalance.CreditedEvent:
		return []observability.Field{
			observability.F("shop_id", evt.ShopID),
			observability.F("order_id", evt.OrderID),
			observability.F("amount", evt.Amount.StringFixed(2)),
			observability.F("mode", string(evt.Mode)),
			observability.F("available", evt.Available.StringFixed(2)),
		}
	}
	return nil
}
