package order

import (
	"context"
	"errors"
	"time"

	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	useCaseGet         = "order.get"
	useCaseListByBuyer = "order.list_by_buyer"
	useCaseListByShop  = "order.list_by_shop"
	useCaseListAll     = "order.list_all"
	useCaseDelete      = "order.delete"
)

// Service serves the read side and administrative operations on orders.
type Service struct {
	repo domain.Repository
	instruments
}

func NewService(repo domain.Repository, tel observability.Observability) *Service {
	return &Service{repo: repo, instruments: newInstruments(tel)}
}

func (s *Service) Get(ctx context.Context, id string) (o *domain.Order, err error) {
	err = s.track(ctx, useCaseGet, "GetOrder", func(ctx context.Context) error {
		if id == "" {
			return newValidation("order id is required")
		}
		o, err = s.repo.Get(ctx, id)
		return wrapRepositoryError(err)
	})
	return o, err
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID string) (orders []*domain.Order, err error) {
	err = s.track(ctx, useCaseListByBuyer, "ListBuyerOrders", func(ctx context.Context) error {
		if buyerID == "" {
			return newValidation("user id is required")
		}
		orders, err = s.repo.ListByBuyer(ctx, buyerID)
		return wrapRepositoryError(err)
	})
	return orders, err
}

func (s *Service) ListByShop(ctx context.Context, shopID string) (orders []*domain.Order, err error) {
	err = s.track(ctx, useCaseListByShop, "ListShopOrders", func(ctx context.Context) error {
		if shopID == "" {
			return newValidation("shop id is required")
		}
		orders, err = s.repo.ListByShop(ctx, shopID)
		return wrapRepositoryError(err)
	})
	return orders, err
}

func (s *Service) ListAll(ctx context.Context, actor Actor) (orders []*domain.Order, err error) {
	err = s.track(ctx, useCaseListAll, "ListAllOrders", func(ctx context.Context) error {
		if actor.Role != RoleAdmin {
			return ErrForbidden
		}
		orders, err = s.repo.List(ctx)
		return wrapRepositoryError(err)
	})
	return orders, err
}

// Delete removes an order without touching either ledger.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	return s.track(ctx, useCaseDelete, "DeleteOrder", func(ctx context.Context) error {
		if actor.Role != RoleAdmin {
			return ErrForbidden
		}
		if id == "" {
			return newValidation("order id is required")
		}
		return wrapRepositoryError(s.repo.Delete(ctx, id))
	})
}

func (s *Service) track(ctx context.Context, useCase, span string, fn func(ctx context.Context) error) error {
	ctx, sp := s.tracer.Start(ctx, spanPrefix+span, attribute.String("use_case", useCase))
	start := time.Now()

	err := fn(ctx)

	outcome, status := "success", "OK"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome, status = "error", "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		outcome, status = "error", "FORBIDDEN"
	case errors.Is(err, ErrValidation):
		outcome, status = "error", "VALIDATION"
	default:
		outcome, status = "error", "REPO_FAILED"
	}
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, status)
	} else {
		sp.SetStatus(codes.Ok, status)
	}
	sp.End()

	lat := time.Since(start).Seconds()
	s.observe(useCase, outcome, lat)

	fields := []observability.Field{
		observability.F("use_case", useCase),
		observability.F("outcome", outcome),
		observability.F("status", status),
		observability.F("latency_seconds", lat),
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	logctx.FromOr(ctx, s.log).Debug("use_case_done", fields...)
	return err
}
