package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"
	"github.com/Zhima-Mochi/marketplace/internal/pkg/keylock"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const useCaseUpdateStatus = "order.update_status"

var _ application.UseCase[UpdateStatusInput, *domain.Order] = (*UpdateStatusUseCase)(nil)

// Settlement configures the side effects of lifecycle transitions.
type Settlement struct {
	RestockPolicy     RestockPolicy
	BalanceMode       dombalance.CreditMode
	ServiceChargeRate decimal.Decimal
}

// DefaultSettlement restocks on dispatch, credits additively and keeps 10%.
func DefaultSettlement() Settlement {
	return Settlement{
		RestockPolicy:     RestockOnDispatch,
		BalanceMode:       dombalance.ModeAdditive,
		ServiceChargeRate: decimal.RequireFromString("0.10"),
	}
}

// UpdateStatusUseCase moves an order through its lifecycle and applies the
// ledger side effects of the transition in the same unit of work.
type UpdateStatusUseCase struct {
	tx         Transactor
	publisher  domoutbox.Publisher
	settlement Settlement
	locks      *keylock.Locker
	now        func() time.Time
	instruments
}

func NewUpdateStatusUseCase(
	tx Transactor,
	publisher domoutbox.Publisher,
	settlement Settlement,
	tel observability.Observability,
) *UpdateStatusUseCase {
	if settlement.RestockPolicy == "" {
		settlement.RestockPolicy = RestockOnDispatch
	}
	if settlement.BalanceMode == "" {
		settlement.BalanceMode = dombalance.ModeAdditive
	}
	return &UpdateStatusUseCase{
		tx:          tx,
		publisher:   publisher,
		settlement:  settlement,
		locks:       keylock.New(),
		now:         time.Now,
		instruments: newInstruments(tel),
	}
}

type UpdateStatusInput struct {
	OrderID string
	Status  string
	Actor   Actor
}

// Execute performs one lifecycle transition.
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseUpdateStatus),
		observability.F("order_id", cmd.OrderID),
	)

	var from domain.Status
	var publishErr error

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"UpdateOrderStatus",
		attribute.String("use_case", useCaseUpdateStatus),
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status),
		attribute.String("actor.role", string(cmd.Actor.Role)),
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

		uc.observe(useCaseUpdateStatus, outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("from", string(from)),
			observability.F("to", cmd.Status),
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

	if cmd.OrderID == "" {
		outcome, statusText = "error", "ORDER_ID_REQUIRED"
		return nil, newValidation("order id is required")
	}
	target, perr := domain.ParseStatus(cmd.Status)
	if perr != nil {
		outcome, statusText = "error", "STATUS_UNKNOWN"
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransition, perr)
	}
	event, eerr := domain.EventFor(target)
	if eerr != nil {
		outcome, statusText = "error", "STATUS_UNREACHABLE"
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransition, eerr)
	}
	if !allowed(cmd.Actor.Role, event) {
		outcome, statusText = "error", "ACTOR_FORBIDDEN"
		return nil, fmt.Errorf("%w: %s may not %s", ErrForbidden, cmd.Actor.Role, event)
	}

	unlock := uc.locks.Lock(cmd.OrderID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	var updated *domain.Order
	var events []domoutbox.Event
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		o, err := s.Orders.Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if cmd.Actor.Role == RoleSeller && o.ShopID != cmd.Actor.ID {
			return fmt.Errorf("%w: order %s belongs to shop %s", ErrForbidden, o.ID, o.ShopID)
		}
		from = o.Status
		if err := o.Apply(event); err != nil {
			return fmt.Errorf("%w: %s -> %s: %w", ErrInvalidTransition, from, target, err)
		}

		sideEvents, err := uc.applySideEffects(ctx, s, o, event)
		if err != nil {
			return err
		}
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}

		updated = o
		events = append([]domoutbox.Event{domain.NewOrderStatusChangedEvent(o, from)}, sideEvents...)
		return nil
	})
	if err != nil {
		err = wrapRepositoryError(err)
		outcome = "error"
		switch {
		case errors.Is(err, ErrNotFound):
			statusText = "NOT_FOUND"
		case errors.Is(err, ErrForbidden):
			statusText = "SHOP_MISMATCH"
		case errors.Is(err, ErrInvalidTransition):
			statusText = "TRANSITION_REJECTED"
		default:
			statusText = "TX_FAILED"
		}
		return nil, err
	}

	if publishErr = uc.publish(ctx, uc.publisher, events...); publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.SetAttributes(attribute.String("order.status", string(updated.Status)))
	return updated, nil
}

func (uc *UpdateStatusUseCase) applySideEffects(ctx context.Context, s Stores, o *domain.Order, event domain.Event) ([]domoutbox.Event, error) {
	switch event {
	case domain.EventDispatch:
		if uc.settlement.RestockPolicy != RestockOnDispatch {
			return nil, nil
		}
		return restockItems(ctx, s.Inventory, o, dominventory.ReasonDispatch)

	case domain.EventApproveRefund:
		return restockItems(ctx, s.Inventory, o, dominventory.ReasonRefund)

	case domain.EventDeliver:
		o.MarkDelivered(uc.now())
		charge, payout := o.Settlement(uc.settlement.ServiceChargeRate)
		acct, err := s.Balances.Credit(ctx, o.ShopID, payout, uc.settlement.BalanceMode)
		if err != nil {
			return nil, fmt.Errorf("credit shop %s: %w", o.ShopID, err)
		}
		return []domoutbox.Event{
			domain.NewOrderDeliveredEvent(o, charge, payout),
			dombalance.NewCreditedEvent(acct, o.ID, payout, uc.settlement.BalanceMode),
		}, nil
	}
	return nil, nil
}

func restockItems(ctx context.Context, ledger dominventory.Ledger, o *domain.Order, reason string) ([]domoutbox.Event, error) {
	events := make([]domoutbox.Event, 0, len(o.Items))
	for _, it := range o.Items {
		rec, err := ledger.Restock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("restock product %s: %w", it.ProductID, err)
		}
		events = append(events, dominventory.NewRestockedEvent(rec, it.Quantity, reason))
	}
	return events, nil
}

// allowed encodes which actor may fire which event. Admins may fire any.
func allowed(role Role, event domain.Event) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleSeller:
		return event == domain.EventDispatch || event == domain.EventDeliver || event == domain.EventApproveRefund
	case RoleBuyer:
		return event == domain.EventRequestRefund
	}
	return false
}
