package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const useCaseCheckout = "order.checkout"

var _ application.UseCase[CheckoutInput, *CheckoutResult] = (*CheckoutUseCase)(nil)

// CheckoutUseCase splits a cart into one order per shop and persists them atomically.
type CheckoutUseCase struct {
	tx          Transactor
	idGenerator IDGenerator
	idempotency IdempotencyStore
	publisher   domoutbox.Publisher
	instruments
}

// NewCheckoutUseCase wires the dependencies required to execute the use case.
// idem may be nil, in which case idempotency keys are ignored.
func NewCheckoutUseCase(
	tx Transactor,
	idGen IDGenerator,
	idem IdempotencyStore,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		tx:          tx,
		idGenerator: idGen,
		idempotency: idem,
		publisher:   publisher,
		instruments: newInstruments(tel),
	}
}

type CheckoutInput struct {
	IdempotencyKey  string
	Cart            []domain.Item
	ShippingAddress domain.ShippingAddress
	Buyer           domain.Buyer
	TotalPrice      decimal.Decimal
	Payment         payment.Info
}

type CheckoutResult struct {
	Orders   []*domain.Order
	Replayed bool
}

// Execute performs the checkout flow.
func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *CheckoutResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseCheckout))

	var publishErr error
	var orderCount int

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Checkout",
		attribute.String("use_case", useCaseCheckout),
		attribute.String("order.buyer_id", cmd.Buyer.ID),
		attribute.Int("order.cart_items", len(cmd.Cart)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.observe(useCaseCheckout, outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("orders", orderCount),
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

	if cmd.TotalPrice.IsNegative() {
		outcome, statusText = "error", "TOTAL_INVALID"
		return nil, newValidation("total price must be zero or greater")
	}
	parts, perr := domain.PartitionCart(cmd.Cart)
	if perr != nil {
		outcome, statusText = "error", "CART_INVALID"
		return nil, fmt.Errorf("%w: %w", ErrValidation, perr)
	}
	if cmd.TotalPrice.IsZero() && domain.Priced(parts) {
		outcome, statusText = "error", "TOTAL_UNPAID"
		return nil, newValidation("total price is zero for a priced cart")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	key := scopedKey(cmd)
	if uc.idempotency == nil {
		key = ""
	}
	if key != "" {
		replay, claimed, ierr := uc.claim(ctx, key)
		switch {
		case ierr != nil:
			outcome, statusText = "error", "IDEMPOTENCY_FAILED"
			return nil, ierr
		case replay != nil && !sameCheckout(replay, parts, cmd):
			outcome, statusText = "error", "IDEMPOTENCY_MISMATCH"
			return nil, fmt.Errorf("%w: idempotency key %q was used for a different checkout", ErrConflict, cmd.IdempotencyKey)
		case replay != nil:
			orderCount = len(replay)
			statusText = "IDEMPOTENT_REPLAY"
			span.AddEvent("order.idempotent_replay", trace.WithAttributes(attribute.Int("order.count", orderCount)))
			return &CheckoutResult{Orders: replay, Replayed: true}, nil
		case !claimed:
			outcome, statusText = "error", "IDEMPOTENCY_IN_FLIGHT"
			return nil, fmt.Errorf("%w: checkout %q already in progress", ErrConflict, key)
		}
	}

	shares := domain.Allocate(cmd.TotalPrice, parts)
	orders := make([]*domain.Order, 0, len(parts))
	for i, p := range parts {
		o, derr := domain.New(uc.idGenerator.NewID(), p, shares[i], cmd.TotalPrice, cmd.Buyer, cmd.ShippingAddress, cmd.Payment, key)
		if derr != nil {
			uc.release(ctx, key, logger)
			outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
			return nil, fmt.Errorf("%w: %w", ErrValidation, derr)
		}
		orders = append(orders, o)
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		for _, o := range orders {
			if err := s.Orders.Insert(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.release(ctx, key, logger)
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, wrapRepositoryError(err)
	}
	orderCount = len(orders)

	if key != "" {
		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		if cerr := uc.idempotency.Complete(ctx, key, ids); cerr != nil {
			logger.Warn("idempotency_complete_failed", observability.F("error", cerr))
		}
	}

	events := make([]domoutbox.Event, len(orders))
	for i, o := range orders {
		events[i] = domain.NewOrderCreatedEvent(o)
	}
	if publishErr = uc.publish(ctx, uc.publisher, events...); publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.AddEvent("order.created", trace.WithAttributes(attribute.Int("order.count", orderCount)))
	return &CheckoutResult{Orders: orders}, nil
}

// scopedKey namespaces the client's idempotency key by buyer so two buyers
// can never replay each other's orders.
func scopedKey(cmd CheckoutInput) string {
	if cmd.IdempotencyKey == "" {
		return ""
	}
	return cmd.Buyer.ID + ":" + cmd.IdempotencyKey
}

// sameCheckout reports whether replayed orders were created from the same
// cart, total and shipping address as cmd. An empty replay (orders deleted
// since) matches anything.
func sameCheckout(replay []*domain.Order, parts []domain.Partition, cmd CheckoutInput) bool {
	if len(replay) == 0 {
		return true
	}
	if len(replay) != len(parts) {
		return false
	}
	for i, o := range replay {
		p := parts[i]
		if o.ShopID != p.ShopID || o.Buyer.ID != cmd.Buyer.ID ||
			!o.CartTotal.Equal(cmd.TotalPrice) || o.ShippingAddress != cmd.ShippingAddress ||
			len(o.Items) != len(p.Items) {
			return false
		}
		for j, it := range o.Items {
			want := p.Items[j]
			if it.ProductID != want.ProductID || it.Quantity != want.Quantity || !it.UnitPrice.Equal(want.UnitPrice) {
				return false
			}
		}
	}
	return true
}

// claim returns the previously created orders for a replayed key, or claimed=true
// when this call owns the key.
func (uc *CheckoutUseCase) claim(ctx context.Context, key string) (replay []*domain.Order, claimed bool, err error) {
	if replay, err = uc.lookup(ctx, key); err != nil || replay != nil {
		return replay, false, err
	}
	ok, err := uc.idempotency.Claim(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: idempotency claim: %w", ErrRepository, err)
	}
	if ok {
		return nil, true, nil
	}
	// Lost the race; the winner may have finished in between.
	replay, err = uc.lookup(ctx, key)
	return replay, false, err
}

func (uc *CheckoutUseCase) lookup(ctx context.Context, key string) ([]*domain.Order, error) {
	ids, found, err := uc.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency lookup: %w", ErrRepository, err)
	}
	if !found {
		return nil, nil
	}
	orders := make([]*domain.Order, 0, len(ids))
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		orders = orders[:0]
		for _, id := range ids {
			o, err := s.Orders.Get(ctx, id)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// orders were deleted administratively; the key no longer replays anything
			return []*domain.Order{}, nil
		}
		return nil, wrapRepositoryError(err)
	}
	return orders, nil
}

func (uc *CheckoutUseCase) release(ctx context.Context, key string, logger observability.Logger) {
	if key == "" {
		return
	}
	if err := uc.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		logger.Warn("idempotency_release_failed", observability.F("error", err))
	}
}
