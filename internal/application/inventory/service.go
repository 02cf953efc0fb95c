package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	dominv "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace/internal/observability"
)

// Service answers inventory reads.
type Service struct {
	ledger       dominv.Ledger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(ledger dominv.Ledger, tel observability.Observability) *Service {
	m := observability.Or(tel).Metrics()
	return &Service{
		ledger:       ledger,
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (s *Service) Get(ctx context.Context, productID string) (*dominv.Record, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		s.reqCounter.Add(1, observability.L("use_case", useCaseGet), observability.L("outcome", outcome))
		s.durHistogram.Observe(time.Since(start).Seconds(), observability.L("use_case", useCaseGet))
	}()

	if productID == "" {
		outcome = "error"
		return nil, fmt.Errorf("%w: product id is required", application.ErrValidation)
	}
	rec, err := s.ledger.Get(ctx, productID)
	if err != nil {
		outcome = "error"
		return nil, classify(err)
	}
	return rec, nil
}
