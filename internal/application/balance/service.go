package balance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	balanceService = "balance-service"
	useCaseGet     = "balance.get"
)

// Service exposes a seller's settled balance. Credits only happen as a side
// effect of order delivery, so there is no public write path.
type Service struct {
	ledger       dombalance.Ledger
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(ledger dombalance.Ledger, tel observability.Observability) *Service {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &Service{
		ledger:       ledger,
		log:          tel.Logger().With(observability.F("service", balanceService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

// Get returns the account of shopID. requesterShopID must match unless empty.
func (s *Service) Get(ctx context.Context, requesterShopID, shopID string) (acct *dombalance.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "UC.GetBalance",
		attribute.String("use_case", useCaseGet),
		attribute.String("shop.id", shopID),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		lat := time.Since(start).Seconds()
		s.reqCounter.Add(1, observability.L("use_case", useCaseGet), observability.L("outcome", outcome))
		s.durHistogram.Observe(lat, observability.L("use_case", useCaseGet))
		logctx.FromOr(ctx, s.log).Debug("use_case_done",
			observability.F("use_case", useCaseGet),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		)
	}()

	if shopID == "" {
		return nil, fmt.Errorf("%w: shop id is required", application.ErrValidation)
	}
	if requesterShopID != "" && requesterShopID != shopID {
		return nil, fmt.Errorf("%w: balance of shop %s", application.ErrForbidden, shopID)
	}
	acct, err = s.ledger.Get(ctx, shopID)
	switch {
	case err == nil:
		return acct, nil
	case errors.Is(err, dombalance.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", application.ErrNotFound, err)
	default:
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
}
