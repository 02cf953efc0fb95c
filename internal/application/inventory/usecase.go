package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	dominv "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	inventoryService = "inventory-service"
	useCaseRestock   = "inventory.restock"
	useCaseGet       = "inventory.get"
	spanPrefix       = "UC."
	publishPeer      = "outbox"
	publishTimeout   = 300 * time.Millisecond
)

var _ application.UseCase[RestockInput, *dominv.Record] = (*RestockUseCase)(nil)

type RestockInput struct {
	// ShopID is the authenticated seller; empty skips the ownership check.
	ShopID    string
	ProductID string
	Quantity  int
}

// RestockUseCase returns units to a product's stock on behalf of its seller.
type RestockUseCase struct {
	ledger       dominv.Ledger
	publisher    domoutbox.Publisher
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewRestockUseCase(ledger dominv.Ledger, publisher domoutbox.Publisher, tel observability.Observability) *RestockUseCase {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &RestockUseCase{
		ledger:       ledger,
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("service", inventoryService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *RestockUseCase) Execute(ctx context.Context, cmd RestockInput) (rec *dominv.Record, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseRestock),
		observability.F("product_id", cmd.ProductID),
		observability.F("quantity", cmd.Quantity),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Restock",
		attribute.String("use_case", useCaseRestock),
		attribute.String("product.id", cmd.ProductID),
		attribute.Int("inventory.quantity", cmd.Quantity),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var publishErr error

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseRestock),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(latency,
			observability.L("use_case", useCaseRestock),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.ProductID == "" {
		outcome, statusText = "error", "PRODUCT_ID_REQUIRED"
		return nil, fmt.Errorf("%w: product id is required", application.ErrValidation)
	}
	if cmd.Quantity <= 0 {
		outcome, statusText = "error", "QUANTITY_INVALID"
		return nil, fmt.Errorf("%w: %w", application.ErrValidation, dominv.ErrInvalidQuantity)
	}

	if cmd.ShopID != "" {
		current, gerr := uc.ledger.Get(ctx, cmd.ProductID)
		if gerr != nil {
			outcome, statusText = "error", "LOOKUP_FAILED"
			return nil, classify(gerr)
		}
		if current.ShopID != cmd.ShopID {
			outcome, statusText = "error", "SHOP_MISMATCH"
			return nil, fmt.Errorf("%w: product %s belongs to shop %s", application.ErrForbidden, cmd.ProductID, current.ShopID)
		}
	}

	rec, err = uc.ledger.Restock(ctx, cmd.ProductID, cmd.Quantity)
	if err != nil {
		outcome, statusText = "error", "RESTOCK_FAILED"
		return nil, classify(err)
	}

	publishErr = uc.publish(ctx, dominv.NewRestockedEvent(rec, cmd.Quantity, dominv.ReasonManualRestock))
	span.AddEvent("inventory.restocked", trace.WithAttributes(attribute.Int("inventory.stock", rec.Stock)))
	return rec, nil
}

func (uc *RestockUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
	)
	return err
}

func classify(err error) error {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	case errors.Is(err, dominv.ErrInvalidQuantity):
		return fmt.Errorf("%w: %w", application.ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
}
