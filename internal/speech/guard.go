package speech

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Vovarama1992/speechflow/internal/metrics"
)

// GuardSettings bounds the traffic one credential may push upstream.
type GuardSettings struct {
	MaxConcurrency  int64
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// OnTrip is called when the breaker opens.
	OnTrip func(vendor VendorKind)
}

// guard serialises access to a single upstream credential: at most
// MaxConcurrency calls in flight, and no calls at all while the breaker is open.
// It never retries.
type guard struct {
	vendor  VendorKind
	slots   *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker
}

func newGuard(vendor VendorKind, s GuardSettings, log *zap.Logger) *guard {
	if s.MaxConcurrency <= 0 {
		s.MaxConcurrency = 8
	}
	if s.BreakerFailures == 0 {
		s.BreakerFailures = 5
	}
	if s.BreakerCooldown <= 0 {
		s.BreakerCooldown = 30 * time.Second
	}

	threshold := s.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "upstream-" + vendor.String(),
		MaxRequests: 1,
		Timeout:     s.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		// Caller cancellations and vendor 4xx say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var ue *UpstreamError
			if errors.As(err, &ue) {
				return ue.Status != 0 && ue.Status < 500 && ue.Status != 429
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("upstream breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
				if s.OnTrip != nil {
					s.OnTrip(vendor)
				}
			}
			metrics.BreakerState.WithLabelValues(vendor.String()).Set(open)
		},
	})

	return &guard{
		vendor:  vendor,
		slots:   semaphore.NewWeighted(s.MaxConcurrency),
		breaker: cb,
	}
}

// do runs fn once, holding a concurrency slot. Waiting for a slot respects ctx.
func (g *guard) do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.slots.Release(1)

	inFlight := metrics.UpstreamInFlight.WithLabelValues(g.vendor.String())
	inFlight.Inc()
	defer inFlight.Dec()

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
